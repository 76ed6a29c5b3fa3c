package notifyleadowner

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"lead-workers/internal/common/aws"
	"lead-workers/internal/common/config"
	stderrors "lead-workers/internal/common/errors"
	"lead-workers/internal/common/logger"
	"lead-workers/internal/leads"
	"lead-workers/internal/models"
)

var fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

// ==========================
// Mock Implementations
// ==========================

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishEvent(ctx context.Context, event aws.Event) (string, error) {
	args := m.Called(ctx, event)
	return args.String(0), args.Error(1)
}

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendTextEmail(ctx context.Context, from, to, subject, body string) (string, error) {
	args := m.Called(ctx, from, to, subject, body)
	return args.String(0), args.Error(1)
}

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{
		Timeout:   5 * time.Second,
		TopicARN:  "arn:aws:sns:us-east-1:123456789012:lead-events",
		FromEmail: "leads@example.com",
		OwnerEmails: map[string]string{
			"user-emea-1": "emea-owner@example.com",
		},
	}
}

func createTestHandler(t *testing.T, config *Config, publisher Publisher, mailer Mailer) *Handler {
	if config == nil {
		config = createTestConfig()
	}
	h := NewHandler(config, nil, publisher, mailer, nil, logger.NewTestLogger(t))
	h.now = func() time.Time { return fixedNow }
	return h
}

func createLead() *models.Lead {
	return &models.Lead{
		ID:        "42",
		FirstName: "Anna",
		LastName:  "Schmidt",
		Email:     "anna@firma.eu",
		Company:   "Firma GmbH",
		Score:     models.IntPtr(92),
	}
}

func errorCode(t *testing.T, err error) stderrors.ErrorCode {
	t.Helper()
	stdErr, ok := stderrors.AsStandardError(err)
	require.True(t, ok, "expected StandardError, got %T: %v", err, err)
	return stdErr.Code
}

// ==========================
// Publish Tests
// ==========================

func TestHandler_Execute_PublishesAndEmails(t *testing.T) {
	publisher := new(MockPublisher)
	mailer := new(MockMailer)

	var published aws.Event
	publisher.On("PublishEvent", mock.Anything, mock.AnythingOfType("aws.Event")).
		Run(func(args mock.Arguments) { published = args.Get(1).(aws.Event) }).
		Return("msg-1", nil)
	mailer.On("SendTextEmail", mock.Anything, "leads@example.com", "emea-owner@example.com",
		"New lead assigned: Anna Schmidt", mock.AnythingOfType("string")).
		Return("mail-1", nil)

	handler := createTestHandler(t, nil, publisher, mailer)
	output, err := handler.Execute(context.Background(), &Input{Lead: createLead()})

	require.NoError(t, err)
	assert.Equal(t, EventAssigned, output.Event)
	assert.Equal(t, leads.OwnerEMEA, output.OwnerID)
	assert.True(t, output.Published)
	assert.Equal(t, "msg-1", output.MessageID)
	assert.True(t, output.Emailed)
	assert.Equal(t, "mail-1", output.EmailMessageID)

	assert.Equal(t, createTestConfig().TopicARN, published.TopicARN)
	assert.Equal(t, leads.OwnerEMEA, published.GroupID)
	assert.Equal(t, map[string]string{"event": EventAssigned, "ownerId": leads.OwnerEMEA, "region": leads.RegionEMEA},
		published.Attributes)

	payload, err := json.Marshal(published.Payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"event": "assigned",
		"leadId": 42,
		"ownerId": "user-emea-1",
		"region": "emea",
		"leadName": "Anna Schmidt",
		"email": "anna@firma.eu",
		"company": "Firma GmbH",
		"score": 92,
		"occurredAt": "2026-03-10T12:00:00Z"
	}`, string(payload))

	publisher.AssertExpectations(t)
	mailer.AssertExpectations(t)
}

func TestHandler_Execute_OwnerResolution(t *testing.T) {
	tests := []struct {
		name          string
		input         *Input
		expectedOwner string
		expectEmail   bool
	}{
		{
			name:          "explicit owner wins",
			input:         &Input{Lead: createLead(), OwnerID: "USER-EMEA-1"},
			expectedOwner: "USER-EMEA-1",
			expectEmail:   true,
		},
		{
			name: "lead owner",
			input: &Input{Lead: func() *models.Lead {
				l := createLead()
				l.OwnerID = leads.OwnerAPAC
				return l
			}()},
			expectedOwner: leads.OwnerAPAC,
		},
		{
			name:          "routed owner",
			input:         &Input{Lead: &models.Lead{ID: "7", Email: "joe@acme.com"}},
			expectedOwner: leads.OwnerAMER,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			publisher := new(MockPublisher)
			publisher.On("PublishEvent", mock.Anything, mock.Anything).Return("msg", nil)
			mailer := new(MockMailer)
			mailer.On("SendTextEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
				Return("mail", nil)

			handler := createTestHandler(t, nil, publisher, mailer)
			output, err := handler.Execute(context.Background(), tt.input)

			require.NoError(t, err)
			assert.Equal(t, tt.expectedOwner, output.OwnerID)
			assert.Equal(t, tt.expectEmail, output.Emailed)
		})
	}
}

func TestHandler_Execute_AutoConverted(t *testing.T) {
	publisher := new(MockPublisher)
	publisher.On("PublishEvent", mock.Anything, mock.MatchedBy(func(e aws.Event) bool {
		return e.Subject == "Lead converted: Anna Schmidt" && e.Attributes["event"] == EventAutoConverted
	})).Return("msg-2", nil)

	handler := createTestHandler(t, nil, publisher, nil)
	output, err := handler.Execute(context.Background(), &Input{
		Event:        "AUTO_CONVERTED",
		Lead:         createLead(),
		CRMContactID: "c-9",
	})

	require.NoError(t, err)
	assert.Equal(t, EventAutoConverted, output.Event)
	assert.True(t, output.Published)
	assert.False(t, output.Emailed)
	publisher.AssertExpectations(t)
}

func TestHandler_Execute_ChannelsDisabled(t *testing.T) {
	cfg := createTestConfig()
	cfg.TopicARN = ""

	handler := createTestHandler(t, cfg, new(MockPublisher), nil)
	output, err := handler.Execute(context.Background(), &Input{Lead: createLead()})

	require.NoError(t, err)
	assert.False(t, output.Published)
	assert.False(t, output.Emailed)
}

func TestDedupeID_StablePerEvent(t *testing.T) {
	n := Notification{Event: EventAssigned, LeadID: "42", OwnerID: leads.OwnerEMEA}

	assert.Equal(t, dedupeID(n), dedupeID(n))

	n2 := n
	n2.Event = EventAutoConverted
	assert.NotEqual(t, dedupeID(n), dedupeID(n2))
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_Errors(t *testing.T) {
	tests := []struct {
		name         string
		input        *Input
		setupMocks   func(*MockPublisher, *MockMailer)
		expectedCode stderrors.ErrorCode
	}{
		{
			name:         "unknown event",
			input:        &Input{Event: "deleted", Lead: createLead()},
			setupMocks:   func(p *MockPublisher, m *MockMailer) {},
			expectedCode: stderrors.ErrCodeInvalidLeadInput,
		},
		{
			name:         "no lead",
			input:        &Input{LeadID: "42"},
			setupMocks:   func(p *MockPublisher, m *MockMailer) {},
			expectedCode: stderrors.ErrCodeInvalidLeadInput,
		},
		{
			name:  "sns failure",
			input: &Input{Lead: createLead()},
			setupMocks: func(p *MockPublisher, m *MockMailer) {
				p.On("PublishEvent", mock.Anything, mock.Anything).Return("", errors.New("throttled"))
			},
			expectedCode: stderrors.ErrCodeNotificationSendFailed,
		},
		{
			name:  "ses failure",
			input: &Input{Lead: createLead()},
			setupMocks: func(p *MockPublisher, m *MockMailer) {
				p.On("PublishEvent", mock.Anything, mock.Anything).Return("msg", nil)
				m.On("SendTextEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
					Return("", errors.New("message rejected"))
			},
			expectedCode: stderrors.ErrCodeNotificationSendFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			publisher := new(MockPublisher)
			mailer := new(MockMailer)
			tt.setupMocks(publisher, mailer)

			handler := createTestHandler(t, nil, publisher, mailer)
			output, err := handler.Execute(context.Background(), tt.input)

			require.Error(t, err)
			assert.Nil(t, output)
			assert.Equal(t, tt.expectedCode, errorCode(t, err))
		})
	}
}

func TestLoadConfig_LowercasesOwnerKeys(t *testing.T) {
	cfg := &config.Config{}
	cfg.Notifications.TopicARN = "arn:topic"
	cfg.Notifications.OwnerEmails = map[string]string{"User-AMER-1": "amer@example.com"}

	c := LoadConfig(cfg)

	email, ok := c.OwnerEmail(leads.OwnerAMER)
	assert.True(t, ok)
	assert.Equal(t, "amer@example.com", email)
	assert.Equal(t, "arn:topic", c.TopicARN)

	_, ok = c.OwnerEmail(leads.OwnerAPAC)
	assert.False(t, ok)
}
