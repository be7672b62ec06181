package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nurpe/negotiations-service/internal/model"
)

type fakeNotificationStore struct {
	inserted []model.Notification
}

func (s *fakeNotificationStore) Insert(_ context.Context, n model.Notification) (*model.Notification, error) {
	n.ID = uuid.New()
	s.inserted = append(s.inserted, n)
	saved := n
	return &saved, nil
}

func (s *fakeNotificationStore) CountUnreadForRecipient(_ context.Context, target model.Notification) (int64, error) {
	var count int64
	for _, n := range s.inserted {
		if !n.IsRead && scopeKey(n) == scopeKey(target) {
			count++
		}
	}
	return count, nil
}

type recordingPublisher struct {
	notifications []model.Notification
	counts        []int64
}

func (p *recordingPublisher) PublishNotification(_ context.Context, n model.Notification) {
	p.notifications = append(p.notifications, n)
}

func (p *recordingPublisher) PublishUnreadCount(_ context.Context, _ model.Notification, count int64) {
	p.counts = append(p.counts, count)
}

func int64p(v int64) *int64 { return &v }

func TestOnStatusChangedFanout(t *testing.T) {
	cases := []struct {
		name        string
		ev          StatusChangedEvent
		wantCount   int
		wantDirect  bool
		wantRoles   int
		wantGlobal  bool
	}{
		{
			name: "requester and scoping known",
			ev: StatusChangedEvent{
				RequestKey:     "REQ-1",
				RequesterID:    "u-1",
				OrganizationID: int64p(5),
				DepartmentID:   int64p(3),
			},
			wantCount:  3,
			wantDirect: true,
			wantRoles:  2,
		},
		{
			name: "organization only",
			ev: StatusChangedEvent{
				RequestKey:     "REQ-1",
				OrganizationID: int64p(5),
			},
			wantCount: 2,
			wantRoles: 2,
		},
		{
			name: "department only",
			ev: StatusChangedEvent{
				RequestKey:   "REQ-1",
				DepartmentID: int64p(3),
			},
			wantCount: 2,
			wantRoles: 2,
		},
		{
			name: "requester only",
			ev: StatusChangedEvent{
				RequestKey:  "REQ-1",
				RequesterID: "u-1",
			},
			wantCount:  1,
			wantDirect: true,
		},
		{
			name:       "nothing known: global broadcast",
			ev:         StatusChangedEvent{RequestKey: "REQ-1"},
			wantCount:  1,
			wantGlobal: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := &fakeNotificationStore{}
			fanout := NewFanout(store, nil, zerolog.Nop())

			tc.ev.FromStatus = "Open"
			tc.ev.ToStatus = "Completed"
			if err := fanout.OnStatusChanged(context.Background(), tc.ev); err != nil {
				t.Fatal(err)
			}

			if len(store.inserted) != tc.wantCount {
				t.Fatalf("inserted = %d, want %d", len(store.inserted), tc.wantCount)
			}

			direct, roles, global := 0, 0, 0
			for _, n := range store.inserted {
				switch {
				case n.RecipientUserID != nil:
					direct++
				case n.RecipientRole != nil:
					roles++
				case n.IsBroadcast():
					global++
				}
				if n.FromStatus == nil || *n.FromStatus != "Open" || n.ToStatus == nil || *n.ToStatus != "Completed" {
					t.Fatalf("missing transition fields on %+v", n)
				}
			}
			if tc.wantDirect != (direct == 1) {
				t.Fatalf("direct = %d", direct)
			}
			if roles != tc.wantRoles {
				t.Fatalf("role-scoped = %d, want %d", roles, tc.wantRoles)
			}
			if tc.wantGlobal != (global == 1) {
				t.Fatalf("global = %d", global)
			}
		})
	}
}

func TestOnStatusChangedRoleTargets(t *testing.T) {
	store := &fakeNotificationStore{}
	fanout := NewFanout(store, nil, zerolog.Nop())

	err := fanout.OnStatusChanged(context.Background(), StatusChangedEvent{
		RequestKey:     "REQ-1",
		FromStatus:     "Open",
		ToStatus:       "Completed",
		OrganizationID: int64p(5),
	})
	if err != nil {
		t.Fatal(err)
	}

	roles := map[model.Role]bool{}
	for _, n := range store.inserted {
		if n.RecipientRole == nil {
			t.Fatalf("expected role-scoped rows, got %+v", n)
		}
		roles[*n.RecipientRole] = true
		if n.RecipientOrganizationID == nil || *n.RecipientOrganizationID != 5 {
			t.Fatalf("org scoping lost: %+v", n)
		}
		if n.RecipientDepartmentID != nil {
			t.Fatalf("department should stay unset: %+v", n)
		}
	}
	if !roles[model.RoleManager] || !roles[model.RoleCoordinator] {
		t.Fatalf("both mid-privilege roles must be covered, got %v", roles)
	}
}

func TestOnRequestCreated(t *testing.T) {
	store := &fakeNotificationStore{}
	fanout := NewFanout(store, nil, zerolog.Nop())

	err := fanout.OnRequestCreated(context.Background(), RequestCreatedEvent{
		RequestKey:   "REQ-9",
		CreatorID:    "u-7",
		CreatorName:  "Sam",
		DepartmentID: int64p(3),
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(store.inserted) != 3 {
		t.Fatalf("inserted = %d, want 3", len(store.inserted))
	}
	for _, n := range store.inserted {
		if n.FromStatus != nil || n.ToStatus != nil {
			t.Fatalf("created event must not carry transition fields: %+v", n)
		}
		if n.SenderID != "u-7" || n.SenderName != "Sam" {
			t.Fatalf("sender fields lost: %+v", n)
		}
	}
}

func TestFanoutPushesLiveUpdates(t *testing.T) {
	store := &fakeNotificationStore{}
	publisher := &recordingPublisher{}
	fanout := NewFanout(store, publisher, zerolog.Nop())

	err := fanout.OnStatusChanged(context.Background(), StatusChangedEvent{
		RequestKey:  "REQ-1",
		FromStatus:  "Open",
		ToStatus:    "Completed",
		RequesterID: "u-1",
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(publisher.notifications) != 1 {
		t.Fatalf("pushed = %d, want 1", len(publisher.notifications))
	}
	if len(publisher.counts) != 1 || publisher.counts[0] != 1 {
		t.Fatalf("counts = %v, want [1]", publisher.counts)
	}
}
