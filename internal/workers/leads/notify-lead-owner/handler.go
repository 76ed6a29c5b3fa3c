// internal/workers/leads/notify-lead-owner/handler.go
package notifyleadowner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"

	"lead-workers/internal/common/aws"
	"lead-workers/internal/common/camunda"
	"lead-workers/internal/common/errors"
	"lead-workers/internal/common/logger"
	"lead-workers/internal/common/observability"
	"lead-workers/internal/leads"
	"lead-workers/internal/workers/leads/leadjob"
)

const (
	TaskType = "notify-lead-owner"
)

type Publisher interface {
	PublishEvent(ctx context.Context, event aws.Event) (string, error)
}

type Mailer interface {
	SendTextEmail(ctx context.Context, from, to, subject, body string) (string, error)
}

type Handler struct {
	config    *Config
	store     leadjob.LeadGetter
	publisher Publisher
	mailer    Mailer
	now       func() time.Time
	runner    *camunda.JobRunner
	logger    logger.Logger
}

// NewHandler builds the handler. store, publisher and mailer are optional;
// a nil publisher or mailer disables that channel.
func NewHandler(config *Config, store leadjob.LeadGetter, publisher Publisher, mailer Mailer, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
		store:     store,
		publisher: publisher,
		mailer:    mailer,
		now:       time.Now,
		runner:    camunda.NewJobRunner(TaskType, config.Timeout, log, obs),
		logger:    log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	input := &Input{}
	h.runner.Run(client, job, input, func(ctx context.Context) (interface{}, error) {
		return h.Execute(ctx, input)
	})
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	event := strings.ToLower(strings.TrimSpace(input.Event))
	if event == "" {
		event = EventAssigned
	}
	if event != EventAssigned && event != EventAutoConverted {
		return nil, errors.NewInvalidLeadInputError("unknown notification event: " + input.Event)
	}

	lead, err := leadjob.ResolveLead(ctx, h.store, input.Lead, input.LeadID)
	if err != nil {
		return nil, err
	}

	assignment := leads.Route(*lead)
	ownerID := input.OwnerID
	if ownerID == "" {
		ownerID = lead.OwnerID
	}
	if ownerID == "" {
		ownerID = assignment.OwnerID
	}

	n := Notification{
		Event:        event,
		LeadID:       lead.ID,
		OwnerID:      ownerID,
		Region:       assignment.Region,
		LeadName:     strings.TrimSpace(lead.FullName()),
		Email:        lead.Email,
		Company:      lead.Company,
		Score:        lead.ScoreValue(),
		CRMContactID: input.CRMContactID,
		OccurredAt:   h.now().UTC(),
	}
	output := &Output{Event: event, OwnerID: ownerID}

	if h.publisher != nil && h.config.TopicARN != "" {
		msgID, err := h.publisher.PublishEvent(ctx, aws.Event{
			TopicARN: h.config.TopicARN,
			Subject:  subject(n),
			Payload:  n,
			Attributes: map[string]string{
				"event":   event,
				"ownerId": ownerID,
				"region":  n.Region,
			},
			GroupID:  ownerID,
			DedupeID: dedupeID(n),
		})
		if err != nil {
			return nil, errors.NewNotificationSendFailedError("sns", err)
		}
		output.Published = true
		output.MessageID = msgID
	}

	if to, ok := h.config.OwnerEmail(ownerID); ok && h.mailer != nil {
		msgID, err := h.mailer.SendTextEmail(ctx, h.config.FromEmail, to, subject(n), body(n))
		if err != nil {
			return nil, errors.NewNotificationSendFailedError("ses", err)
		}
		output.Emailed = true
		output.EmailMessageID = msgID
	}

	h.logger.Info("lead owner notified", map[string]interface{}{
		"leadId":    lead.ID,
		"ownerId":   ownerID,
		"event":     event,
		"published": output.Published,
		"emailed":   output.Emailed,
	})

	return output, nil
}

// dedupeID is derived from the event, lead and owner so a retried job
// reuses it.
func dedupeID(n Notification) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(n.Event+"/"+n.LeadID.String()+"/"+n.OwnerID)).String()
}

func subject(n Notification) string {
	name := n.LeadName
	if name == "" {
		name = "lead " + n.LeadID.String()
	}
	switch n.Event {
	case EventAutoConverted:
		return fmt.Sprintf("Lead converted: %s", name)
	default:
		return fmt.Sprintf("New lead assigned: %s", name)
	}
}

func body(n Notification) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", subject(n))
	fmt.Fprintf(&b, "Lead:    %s\n", n.LeadID)
	if n.Company != "" {
		fmt.Fprintf(&b, "Company: %s\n", n.Company)
	}
	if n.Email != "" {
		fmt.Fprintf(&b, "Email:   %s\n", n.Email)
	}
	fmt.Fprintf(&b, "Score:   %d\n", n.Score)
	fmt.Fprintf(&b, "Region:  %s\n", n.Region)
	if n.CRMContactID != "" {
		fmt.Fprintf(&b, "CRM contact: %s\n", n.CRMContactID)
	}
	return b.String()
}
