// Package notify delivers booking events to people.
package notify

import (
	"context"
	"fmt"
	"html"

	"github.com/google/uuid"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"toolrent-backend/internal/domain"
	"toolrent-backend/internal/logger"
	"toolrent-backend/internal/repository"
)

// Sender is the part of the SendGrid client used here.
type Sender interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

type EmailNotifier struct {
	sender    Sender
	fromEmail string
	fromName  string
	users     repository.UserDirectory
	tools     repository.ToolCatalog
}

func NewSendGridNotifier(apiKey, fromEmail, fromName string, users repository.UserDirectory, tools repository.ToolCatalog) *EmailNotifier {
	return NewEmailNotifier(sendgrid.NewSendClient(apiKey), fromEmail, fromName, users, tools)
}

func NewEmailNotifier(sender Sender, fromEmail, fromName string, users repository.UserDirectory, tools repository.ToolCatalog) *EmailNotifier {
	return &EmailNotifier{
		sender:    sender,
		fromEmail: fromEmail,
		fromName:  fromName,
		users:     users,
		tools:     tools,
	}
}

type message struct {
	to      uuid.UUID
	subject string
	body    string
}

func (n *EmailNotifier) compose(event domain.BookingEvent, toolName string) (message, bool) {
	amount := event.Amount.StringFixed(2)
	switch event.Type {
	case domain.BookingEventRequested:
		return message{event.OwnerID, "New booking request: " + toolName,
			fmt.Sprintf("You have a new booking request for %s (%s).", toolName, amount)}, true
	case domain.BookingEventApproved:
		return message{event.RenterID, "Booking approved: " + toolName,
			fmt.Sprintf("Your booking for %s was approved.", toolName)}, true
	case domain.BookingEventRejected:
		return message{event.RenterID, "Booking rejected: " + toolName,
			fmt.Sprintf("Your booking for %s was rejected.", toolName)}, true
	case domain.BookingEventCancelled:
		to := event.OwnerID
		if event.Attributes["cancelled_by"] == event.OwnerID.String() {
			to = event.RenterID
		}
		return message{to, "Booking cancelled: " + toolName,
			fmt.Sprintf("The booking for %s was cancelled. Refund: %s.", toolName, event.Attributes["refund_amount"])}, true
	case domain.BookingEventPaid:
		return message{event.OwnerID, "Booking paid: " + toolName,
			fmt.Sprintf("Payment of %s for %s has been received.", amount, toolName)}, true
	case domain.BookingEventConditionReport:
		return message{event.OwnerID, "Condition report: " + toolName,
			fmt.Sprintf("The renter reported %s returned as %s.", toolName, event.Attributes["condition"])}, true
	case domain.BookingEventDepositPaid:
		return message{event.OwnerID, "Deposit paid: " + toolName,
			fmt.Sprintf("A deposit of %s was paid for %s.", amount, toolName)}, true
	case domain.BookingEventPayoutCompleted:
		return message{event.OwnerID, "Payout completed",
			fmt.Sprintf("Your payout of %s has been sent.", amount)}, true
	}
	return message{}, false
}

func (n *EmailNotifier) Notify(ctx context.Context, event domain.BookingEvent) error {
	toolName := "your tool"
	if event.ToolID != uuid.Nil {
		if tool, err := n.tools.GetTool(ctx, event.ToolID); err == nil {
			toolName = tool.Name
		}
	}

	msg, ok := n.compose(event, toolName)
	if !ok {
		return nil
	}

	recipient, err := n.users.GetUser(ctx, msg.to)
	if err != nil {
		return fmt.Errorf("failed to resolve recipient: %w", err)
	}
	if recipient.Email == "" {
		return nil
	}

	email := mail.NewSingleEmail(
		mail.NewEmail(n.fromName, n.fromEmail),
		msg.subject,
		mail.NewEmail(recipient.Name, recipient.Email),
		msg.body,
		"<p>"+html.EscapeString(msg.body)+"</p>",
	)

	logger.ExternalServiceCall("sendgrid", "send", "event", event.Type, "to", recipient.ID)
	resp, err := n.sender.SendWithContext(ctx, email)
	if err == nil && resp.StatusCode >= 400 {
		err = fmt.Errorf("sendgrid error: status %d, body: %s", resp.StatusCode, resp.Body)
	}
	logger.ExternalServiceResult("sendgrid", "send", err, "event", event.Type)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
