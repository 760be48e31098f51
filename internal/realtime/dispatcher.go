package realtime

import (
	"sync"
	"time"

	"github.com/mehedi89/chirper/backend/internal/models"
	"go.uber.org/zap"
)

const (
	defaultPendingTTL = 3 * time.Second
	maxPendingPerUser = 8
)

// OfflineFunc receives notifications whose recipient has no live session,
// e.g. to hand them to a mobile push provider. May be nil.
type OfflineFunc func(userID string, notification *models.Notification)

// Dispatcher delivers notification records to their recipient's live session.
// Delivery is best-effort, not at-least-once: a record whose recipient is
// offline is parked briefly in case a registration is racing the creating
// request, replayed once if the user registers within the TTL, and otherwise
// dropped from the push path. The record itself stays readable over HTTP.
type Dispatcher struct {
	registry *Registry
	logger   *zap.Logger
	offline  OfflineFunc

	mu         sync.Mutex
	pending    map[string][]pendingPush
	pendingTTL time.Duration
}

type pendingPush struct {
	notification *models.Notification
	expiresAt    time.Time
}

// NewDispatcher creates a Dispatcher over registry. offline may be nil.
func NewDispatcher(registry *Registry, logger *zap.Logger, offline OfflineFunc) *Dispatcher {
	return &Dispatcher{
		registry:   registry,
		logger:     logger,
		offline:    offline,
		pending:    make(map[string][]pendingPush),
		pendingTTL: defaultPendingTTL,
	}
}

// Dispatch pushes notification to userID's session if one is live. A session
// that fails the push is evicted immediately rather than trusted until its
// disconnect event arrives. Misses are parked and, when an offline handler is
// configured, forwarded to it.
func (d *Dispatcher) Dispatch(userID string, notification *models.Notification) {
	if session, ok := d.registry.Lookup(userID); ok {
		err := session.Send(Envelope{Event: EventNotification, Data: notification})
		if err == nil {
			return
		}
		d.registry.Unregister(session)
		session.Close()
		d.logger.Warn("evicted stale realtime session",
			zap.String("user_id", userID),
			zap.String("session_id", session.ID()),
			zap.Error(err))
	} else {
		d.logger.Warn("dispatch miss: user has no live session",
			zap.String("user_id", userID),
			zap.Uint("notification_id", notification.ID))
	}

	d.park(userID, notification)
	if d.offline != nil {
		d.offline(userID, notification)
	}
}

// FlushPending replays parked notifications for userID in creation order.
// Called on registration; entries older than the TTL are dropped. A failed
// replay is not re-parked.
func (d *Dispatcher) FlushPending(userID string) {
	d.mu.Lock()
	queue := pruneExpired(d.pending[userID])
	delete(d.pending, userID)
	d.mu.Unlock()

	if len(queue) == 0 {
		return
	}
	session, ok := d.registry.Lookup(userID)
	if !ok {
		return
	}
	for _, p := range queue {
		if err := session.Send(Envelope{Event: EventNotification, Data: p.notification}); err != nil {
			d.logger.Warn("failed to replay parked notification",
				zap.String("user_id", userID),
				zap.Uint("notification_id", p.notification.ID),
				zap.Error(err))
			return
		}
	}
}

func (d *Dispatcher) park(userID string, notification *models.Notification) {
	d.mu.Lock()
	defer d.mu.Unlock()

	queue := pruneExpired(d.pending[userID])
	if len(queue) >= maxPendingPerUser {
		queue = queue[len(queue)-maxPendingPerUser+1:]
	}
	d.pending[userID] = append(queue, pendingPush{
		notification: notification,
		expiresAt:    time.Now().Add(d.pendingTTL),
	})
}

func pruneExpired(queue []pendingPush) []pendingPush {
	now := time.Now()
	kept := queue[:0]
	for _, p := range queue {
		if p.expiresAt.After(now) {
			kept = append(kept, p)
		}
	}
	return kept
}
