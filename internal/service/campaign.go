package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/avelane/institut-booking/internal/queue"
)

// Segment names a targetable subset of an institute's clients.
type Segment string

const (
	SegmentNew      Segment = "new"      // account created within 30 days
	SegmentLoyal    Segment = "loyal"    // loyalty counters past a threshold
	SegmentInactive Segment = "inactive" // no completed reservation in 90 days
	SegmentBirthday Segment = "birthday" // birth month is the current month
)

// ErrUnknownSegment is returned when a send targets a segment name that is
// not one of the defined segments.
var ErrUnknownSegment = errors.New("unknown segment")

// ErrNoRecipients is returned when neither an explicit recipient list nor a
// segment resolves to anyone.
var ErrNoRecipients = errors.New("no recipients")

// Recipient is one addressee of a campaign.
type Recipient struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// SegmentStore resolves segment names to concrete recipients using the
// client tables.
type SegmentStore interface {
	SegmentRecipients(ctx context.Context, orgID uint64, seg Segment) ([]Recipient, error)
	SegmentCounts(ctx context.Context, orgID uint64) (map[Segment]int, error)
}

// CampaignPublisher pushes individual campaign messages to the broker.
type CampaignPublisher interface {
	CampaignMessage(ctx context.Context, ev queue.CampaignMessageEvent) error
}

// CampaignService fans a campaign out to its recipients, one broker message
// per address, and reports how many were queued.
type CampaignService struct {
	segments  SegmentStore
	publisher CampaignPublisher
}

func NewCampaignService(segments SegmentStore, publisher CampaignPublisher) *CampaignService {
	if segments == nil {
		panic("nil store passed to NewCampaignService")
	}
	return &CampaignService{segments: segments, publisher: publisher}
}

// Counts returns the current size of every segment for the dashboard.
func (s *CampaignService) Counts(ctx context.Context, orgID uint64) (map[Segment]int, error) {
	return s.segments.SegmentCounts(ctx, orgID)
}

// SendInput describes a campaign send: either an explicit recipient list or
// a segment name, plus the mail content.
type SendInput struct {
	OrganizationID uint64
	Recipients     []Recipient
	Segment        Segment
	Subject        string
	Content        string
	Template       string
}

// Send resolves the target audience and publishes one message per
// recipient.  Recipients that fail to publish are skipped and logged; the
// returned count is the number of messages actually queued.
func (s *CampaignService) Send(ctx context.Context, in SendInput) (int, error) {
	recipients := in.Recipients
	if len(recipients) == 0 && in.Segment != "" {
		switch in.Segment {
		case SegmentNew, SegmentLoyal, SegmentInactive, SegmentBirthday:
		default:
			return 0, ErrUnknownSegment
		}
		var err error
		recipients, err = s.segments.SegmentRecipients(ctx, in.OrganizationID, in.Segment)
		if err != nil {
			return 0, err
		}
	}
	if len(recipients) == 0 {
		return 0, ErrNoRecipients
	}

	queuedAt := time.Now().UTC().Format(time.RFC3339)
	sent := 0
	for _, r := range recipients {
		if r.Email == "" {
			continue
		}
		ev := queue.CampaignMessageEvent{
			Email:    r.Email,
			Name:     r.Name,
			Subject:  in.Subject,
			Content:  in.Content,
			Template: in.Template,
			Segment:  string(in.Segment),
			QueuedAt: queuedAt,
		}
		if s.publisher != nil {
			if err := s.publisher.CampaignMessage(ctx, ev); err != nil {
				log.Printf("campaign: publish to %s failed: %v", r.Email, err)
				continue
			}
		}
		sent++
	}
	return sent, nil
}
