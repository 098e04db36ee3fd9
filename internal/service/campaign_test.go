package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/avelane/institut-booking/internal/queue"
)

type mockSegmentStore struct {
	recipients map[Segment][]Recipient
	counts     map[Segment]int
}

func (m *mockSegmentStore) SegmentRecipients(ctx context.Context, orgID uint64, seg Segment) ([]Recipient, error) {
	return m.recipients[seg], nil
}
func (m *mockSegmentStore) SegmentCounts(ctx context.Context, orgID uint64) (map[Segment]int, error) {
	return m.counts, nil
}

type mockCampaignPublisher struct {
	sent   []queue.CampaignMessageEvent
	failOn string // email that fails to publish
}

func (m *mockCampaignPublisher) CampaignMessage(ctx context.Context, ev queue.CampaignMessageEvent) error {
	if ev.Email == m.failOn {
		return errors.New("broker refused")
	}
	m.sent = append(m.sent, ev)
	return nil
}

func TestSendToSegment(t *testing.T) {
	store := &mockSegmentStore{recipients: map[Segment][]Recipient{
		SegmentBirthday: {
			{Email: "a@example.com", Name: "A"},
			{Email: "b@example.com", Name: "B"},
		},
	}}
	pub := &mockCampaignPublisher{}
	svc := NewCampaignService(store, pub)

	n, err := svc.Send(context.Background(), SendInput{
		OrganizationID: 1,
		Segment:        SegmentBirthday,
		Subject:        "Joyeux anniversaire",
		Content:        "Un cadeau vous attend",
	})

	assert.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, pub.sent, 2)
	assert.Equal(t, "Joyeux anniversaire", pub.sent[0].Subject)
	assert.Equal(t, string(SegmentBirthday), pub.sent[0].Segment)
}

func TestSendExplicitRecipientsWinOverSegment(t *testing.T) {
	store := &mockSegmentStore{recipients: map[Segment][]Recipient{
		SegmentNew: {{Email: "segment@example.com"}},
	}}
	pub := &mockCampaignPublisher{}
	svc := NewCampaignService(store, pub)

	n, err := svc.Send(context.Background(), SendInput{
		Recipients: []Recipient{{Email: "direct@example.com"}},
		Segment:    SegmentNew,
		Subject:    "Offre",
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "direct@example.com", pub.sent[0].Email)
}

func TestSendUnknownSegment(t *testing.T) {
	svc := NewCampaignService(&mockSegmentStore{}, &mockCampaignPublisher{})

	_, err := svc.Send(context.Background(), SendInput{Segment: "vip"})

	assert.ErrorIs(t, err, ErrUnknownSegment)
}

func TestSendNoRecipients(t *testing.T) {
	svc := NewCampaignService(&mockSegmentStore{}, &mockCampaignPublisher{})

	_, err := svc.Send(context.Background(), SendInput{Segment: SegmentInactive})

	assert.ErrorIs(t, err, ErrNoRecipients)
}

func TestSendSkipsFailedPublishes(t *testing.T) {
	store := &mockSegmentStore{recipients: map[Segment][]Recipient{
		SegmentLoyal: {
			{Email: "ok@example.com"},
			{Email: "bad@example.com"},
			{Email: "also-ok@example.com"},
		},
	}}
	pub := &mockCampaignPublisher{failOn: "bad@example.com"}
	svc := NewCampaignService(store, pub)

	n, err := svc.Send(context.Background(), SendInput{Segment: SegmentLoyal, Subject: "s"})

	assert.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSendSkipsBlankEmails(t *testing.T) {
	pub := &mockCampaignPublisher{}
	svc := NewCampaignService(&mockSegmentStore{}, pub)

	n, err := svc.Send(context.Background(), SendInput{
		Recipients: []Recipient{{Email: ""}, {Email: "x@example.com"}},
		Subject:    "s",
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCounts(t *testing.T) {
	store := &mockSegmentStore{counts: map[Segment]int{
		SegmentNew: 4, SegmentLoyal: 2, SegmentInactive: 10, SegmentBirthday: 1,
	}}
	svc := NewCampaignService(store, nil)

	counts, err := svc.Counts(context.Background(), 1)

	assert.NoError(t, err)
	assert.Equal(t, 4, counts[SegmentNew])
	assert.Equal(t, 1, counts[SegmentBirthday])
}
