package app

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/avorin/huddle/internal/core"
	"github.com/avorin/huddle/internal/domain"
	"github.com/avorin/huddle/internal/store"
)

// Broadcaster fans presence and chat events out to room members and
// write-through persists them via the async store writer. Durable
// writes are dispatched outside every room lock and their failures
// never reach the live event path.
type Broadcaster struct {
	registry *Registry
	rooms    *Directory
	writer   *store.Writer
	policy   Policy
}

func NewBroadcaster(registry *Registry, rooms *Directory, writer *store.Writer, policy Policy) *Broadcaster {
	if policy == nil {
		policy = DropPolicy{}
	}
	return &Broadcaster{registry: registry, rooms: rooms, writer: writer, policy: policy}
}

// AnnounceJoin replays recent history to the joiner, then announces the
// new member to everyone who was already in the room. The joiner gets
// its replay before any live broadcast from this coordinator becomes
// visible to it.
func (b *Broadcaster) AnnounceJoin(roomID domain.RoomID, joiner domain.Handle, id domain.Identity, joinedAt time.Time, res JoinResult) {
	state := domain.RoomStateEvent{
		Type:    domain.EventRoomState,
		Room:    roomID,
		Members: b.memberViews(append(res.ExistingMembers, joiner)),
		History: res.RecentHistory,
	}
	b.sendTo(joiner, state)

	b.publish(roomID, res.ExistingMembers, domain.JoinedEvent{
		Type:     domain.EventParticipantJoined,
		Handle:   joiner,
		Identity: id,
	})

	b.writer.Participation(roomID, id.ParticipantID, joinedAt, nil)
}

// AnnounceLeave notifies the remaining members; the departed handle is
// already out of the snapshot. Emptying the room marks it inactive in
// the durable store.
func (b *Broadcaster) AnnounceLeave(roomID domain.RoomID, departed domain.Handle, id domain.Identity, joinedAt time.Time, remaining int) {
	if remaining > 0 {
		b.publish(roomID, b.rooms.BroadcastTargets(roomID), domain.LeftEvent{
			Type:   domain.EventParticipantLeft,
			Handle: departed,
		})
	} else {
		b.writer.RoomClosed(roomID, time.Now())
	}

	leftAt := time.Now()
	b.writer.Participation(roomID, id.ParticipantID, joinedAt, &leftAt)
}

// BroadcastMessage appends the message to room history and fans it out
// to every current member, sender included; callers decide whether to
// drop the echo. Persistence runs asynchronously and a store failure
// cannot block or fail the live broadcast.
func (b *Broadcaster) BroadcastMessage(roomID domain.RoomID, sender domain.ParticipantID, m domain.ChatMessage) core.PublishResult {
	if !b.rooms.AppendMessage(roomID, m) {
		return core.PublishResult{}
	}
	res := b.publish(roomID, b.rooms.BroadcastTargets(roomID), domain.NewChatEvent(m))
	b.writer.Message(roomID, sender, m.Text, m.SentAt)
	return res
}

func (b *Broadcaster) memberViews(handles []domain.Handle) []domain.MemberView {
	out := make([]domain.MemberView, 0, len(handles))
	for _, h := range handles {
		id, ok := b.registry.Identity(h)
		if !ok {
			id = domain.PlaceholderIdentity("", h)
		}
		out = append(out, domain.MemberView{Handle: h, Identity: id})
	}
	return out
}

func (b *Broadcaster) sendTo(h domain.Handle, v any) {
	conn, ok := b.registry.Conn(h)
	if !ok {
		return
	}
	frame, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.broadcaster").Msg("encode event")
		return
	}
	if err := conn.TrySend(frame); err != nil && !errors.Is(err, core.ErrClosed) {
		log.Warn().Err(err).Str("module", "app.broadcaster").Str("handle", string(h)).Msg("send failed")
	}
}

// publish delivers one encoded event to each target. Gone channels,
// registered or not, are skipped; backpressured ones go through the
// policy.
func (b *Broadcaster) publish(roomID domain.RoomID, targets []domain.Handle, v any) core.PublishResult {
	frame, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.broadcaster").Msg("encode event")
		return core.PublishResult{}
	}

	res := core.PublishResult{}
	for _, h := range targets {
		conn, ok := b.registry.Conn(h)
		if !ok {
			continue
		}
		if err := conn.TrySend(core.Frame(frame)); err != nil {
			if errors.Is(err, core.ErrClosed) {
				continue
			}
			res.Dropped = append(res.Dropped, h)
			continue
		}
		res.SentTo++
	}

	for _, h := range res.Dropped {
		if b.policy.OnBackPressure(roomID, h) == KickMember {
			b.registry.Cancel(h)
		}
	}
	log.Debug().
		Str("module", "app.broadcaster").
		Str("room", string(roomID)).
		Int("sent_to", res.SentTo).
		Int("dropped", len(res.Dropped)).
		Msg("fan-out")
	return res
}
