package notification

import (
	"fmt"
	"strings"

	"smartcity/internal/events"
)

const fallbackActor = "Someone"

type template struct {
	title   string
	message string
}

// catalog maps event types to their title and message. Placeholders:
// {actor}, {subject}, {rating}.
var catalog = map[events.Type]template{
	events.NewProposal:       {"New Proposal Received", "{actor} has submitted a proposal for: {subject}"},
	events.ProposalAccepted:  {"Proposal Accepted", "{actor} has accepted your proposal for: {subject}"},
	events.ProposalRejected:  {"Proposal Rejected", "{actor} has declined your proposal for: {subject}"},
	events.NewReview:         {"New Review Received", "{actor} has left a {rating}-star review for: {subject}"},
	events.NewMessage:        {"New Message", "You have a new message from {actor}"},
	events.NewServiceRequest: {"New Service Request", "A new request matching your services was posted: {subject}"},

	events.TransactionStatus("IN_PROGRESS"): {"Transaction Started", "{actor} has made payment and started the transaction for: {subject}"},
	events.TransactionStatus("COMPLETED"):   {"Transaction Completed", "{actor} has marked the transaction as completed for: {subject}"},
	events.TransactionStatus("CANCELLED"):   {"Transaction Cancelled", "{actor} has cancelled the transaction for: {subject}"},
	events.TransactionStatus("DISPUTED"):    {"Transaction Disputed", "{actor} has opened a dispute for: {subject}"},
}

// Render returns the title and message for e. Unknown transaction statuses get
// a generic update line; any other unknown type is an error.
func Render(e events.Event) (title, message string, err error) {
	tpl, ok := catalog[e.Type]
	if !ok {
		if !e.Type.IsTransaction() {
			return "", "", fmt.Errorf("no notification template for %q", e.Type)
		}
		status := strings.ToLower(strings.ReplaceAll(e.Type.TransactionStatusOf(), "_", " "))
		tpl = template{"Transaction Updated", "{actor} has moved the transaction to " + status + " for: {subject}"}
	}

	actor := e.ActorName
	if actor == "" {
		actor = fallbackActor
	}
	r := strings.NewReplacer(
		"{actor}", actor,
		"{subject}", e.Subject,
		"{rating}", fmt.Sprint(e.Rating),
	)
	return tpl.title, r.Replace(tpl.message), nil
}
