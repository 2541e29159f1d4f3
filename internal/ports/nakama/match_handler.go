package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"sort"
	"strconv"

	"herowiz/internal/config"
	"herowiz/internal/protocol"

	"github.com/heroiclabs/nakama-common/runtime"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// MatchState holds the relay state for one match. Game state never lives
// here: the host participant owns it and the match only forwards frames.
type MatchState struct {
	MaxPlayers int                         `json:"max_players"`
	Seats      map[int]string              `json:"seats"`       // Seat -> user id; claims survive disconnects
	Tracked    map[string]int              `json:"tracked"`     // User id -> seat for connected presences
	EmptyTicks int                         `json:"empty_ticks"` // Consecutive ticks with nobody connected
	IdleTicks  int                         `json:"idle_ticks"`  // Empty ticks before the match terminates
	Presences  map[string]runtime.Presence `json:"-"`           // User id -> presence for targeted messaging
}

func newMatchState(maxPlayers, idleTicks int) *MatchState {
	return &MatchState{
		MaxPlayers: maxPlayers,
		Seats:      make(map[int]string),
		Tracked:    make(map[string]int),
		IdleTicks:  idleTicks,
		Presences:  make(map[string]runtime.Presence),
	}
}

func (ms *MatchState) isOpen() bool {
	return len(ms.Presences) < ms.MaxPlayers
}

// others returns every connected presence except userID.
func (ms *MatchState) others(userID string) []runtime.Presence {
	out := make([]runtime.Presence, 0, len(ms.Presences))
	for id, p := range ms.Presences {
		if id != userID {
			out = append(out, p)
		}
	}
	return out
}

// trackedOthers returns the connected presences that tracked a seat, except userID.
func (ms *MatchState) trackedOthers(userID string) []runtime.Presence {
	out := make([]runtime.Presence, 0, len(ms.Tracked))
	for id := range ms.Tracked {
		if p, ok := ms.Presences[id]; ok && id != userID {
			out = append(out, p)
		}
	}
	return out
}

func maxPlayers() int {
	return config.GetGameConfig().MaxPlayers
}

type matchHandler struct{}

func newMatchHandler() *matchHandler {
	return &matchHandler{}
}

// MatchInit is called when the match is created.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	logger.Debug("MatchInit: Initializing relay match.")

	idleTicks := defaultIdleTicks
	env, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)
	if val, ok := env[EnvIdleTicks]; ok {
		if i, err := strconv.Atoi(val); err == nil && i > 0 {
			idleTicks = i
		}
	}

	state := newMatchState(maxPlayers(), idleTicks)
	label, err := matchLabel(state)
	if err != nil {
		logger.Error("MatchInit: Failed to marshal label: %v", err)
		return nil, 0, ""
	}
	return state, tickRate, label
}

func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}

	// A seat holder may always come back.
	for _, userID := range matchState.Seats {
		if userID == presence.GetUserId() {
			return state, true, ""
		}
	}
	if !matchState.isOpen() {
		return state, false, "Match full"
	}
	return state, true, ""
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	for _, p := range presences {
		matchState.Presences[p.GetUserId()] = p
		logger.Debug("MatchJoin: User %s connected.", p.GetUserId())
	}
	matchState.EmptyTicks = 0
	mh.updateLabel(matchState, dispatcher, logger)
	return matchState
}

// MatchLeave is called when one or more players leave the match. Their seat
// claims are kept so they can reconnect.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		userID := p.GetUserId()
		delete(matchState.Presences, userID)
		seat, tracked := matchState.Tracked[userID]
		if !tracked {
			continue
		}
		delete(matchState.Tracked, userID)
		logger.Debug("MatchLeave: User %s left seat %d.", userID, seat)
		mh.sendJSON(dispatcher, logger, protocol.OpPresenceLeave,
			protocol.Presence{Seat: seat, ParticipantID: userID}, matchState.trackedOthers(userID), nil)
	}

	mh.updateLabel(matchState, dispatcher, logger)
	return matchState
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}

	for _, msg := range messages {
		switch op := msg.GetOpCode(); {
		case op == protocol.OpTrack:
			mh.handleTrack(matchState, dispatcher, logger, msg)
		case protocol.IsGameOp(op):
			mh.handleGameFrame(matchState, dispatcher, logger, msg)
		default:
			logger.Warn("MatchLoop: Unknown opcode received: %d", op)
		}
	}

	if len(matchState.Presences) == 0 {
		matchState.EmptyTicks++
		if matchState.EmptyTicks >= matchState.IdleTicks {
			logger.Info("MatchLoop: Terminating idle match.")
			return nil
		}
	} else {
		matchState.EmptyTicks = 0
	}
	return matchState
}

// handleTrack claims a seat for the sender. A seat held by another user gets
// the sender kicked.
func (mh *matchHandler) handleTrack(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	userID := msg.GetUserId()
	var p protocol.Presence
	if err := json.Unmarshal(msg.GetData(), &p); err != nil {
		logger.Warn("handleTrack: Malformed track from %s: %v", userID, err)
		return
	}
	if p.Seat < 0 || p.Seat >= state.MaxPlayers {
		logger.Warn("handleTrack: User %s asked for seat %d out of range.", userID, p.Seat)
		return
	}
	if holder, held := state.Seats[p.Seat]; held && holder != userID {
		logger.Warn("handleTrack: Seat %d already held by %s, kicking %s.", p.Seat, holder, userID)
		if err := dispatcher.MatchKick([]runtime.Presence{msg}); err != nil {
			logger.Error("handleTrack: Kick failed: %v", err)
		}
		return
	}

	if prev, ok := state.Tracked[userID]; ok && prev != p.Seat && state.Seats[prev] == userID {
		delete(state.Seats, prev)
	}
	state.Seats[p.Seat] = userID
	state.Tracked[userID] = p.Seat
	presence := protocol.Presence{Seat: p.Seat, ParticipantID: userID}

	self := []runtime.Presence{msg}
	mh.sendJSON(dispatcher, logger, protocol.OpWelcome, protocol.Welcome{ParticipantID: userID}, self, nil)
	mh.sendJSON(dispatcher, logger, protocol.OpPresenceJoin, presence, state.trackedOthers(userID), nil)

	// Replay the seats already present in seat order.
	existing := make([]protocol.Presence, 0, len(state.Tracked))
	for id, seat := range state.Tracked {
		if id != userID {
			existing = append(existing, protocol.Presence{Seat: seat, ParticipantID: id})
		}
	}
	sort.Slice(existing, func(i, j int) bool { return existing[i].Seat < existing[j].Seat })
	for _, e := range existing {
		mh.sendJSON(dispatcher, logger, protocol.OpPresenceJoin, e, self, nil)
	}
	logger.Info("handleTrack: User %s tracked seat %d.", userID, p.Seat)
}

// handleGameFrame forwards a game frame to everyone but the sender. Actions
// must come from the sender's own seat.
func (mh *matchHandler) handleGameFrame(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	userID := msg.GetUserId()
	if msg.GetOpCode() == protocol.OpAction {
		m, err := protocol.DecodeBody(msg.GetOpCode(), msg.GetData())
		if err != nil {
			logger.Warn("handleGameFrame: Malformed action from %s: %v", userID, err)
			return
		}
		seat, tracked := state.Tracked[userID]
		if !tracked || seat != m.FromSeat {
			logger.Warn("handleGameFrame: Dropping action from %s claiming seat %d.", userID, m.FromSeat)
			return
		}
	}

	recipients := state.others(userID)
	if len(recipients) == 0 {
		return
	}
	if err := dispatcher.BroadcastMessage(msg.GetOpCode(), msg.GetData(), recipients, msg, true); err != nil {
		logger.Error("handleGameFrame: Broadcast failed: %v", err)
	}
}

func (mh *matchHandler) sendJSON(dispatcher runtime.MatchDispatcher, logger runtime.Logger, op int64, v any, recipients []runtime.Presence, sender runtime.Presence) {
	if len(recipients) == 0 {
		return
	}
	body, err := json.Marshal(v)
	if err != nil {
		logger.Error("Failed to marshal op %d: %v", op, err)
		return
	}
	if err := dispatcher.BroadcastMessage(op, body, recipients, sender, true); err != nil {
		logger.Error("Failed to broadcast op %d: %v", op, err)
	}
}

// matchLabel renders the listing label, e.g. {"game":"herowiz","open":true,"players":1,"max_players":6}.
func matchLabel(state *MatchState) (string, error) {
	label, err := structpb.NewStruct(map[string]interface{}{
		"game":        GameLabel,
		"open":        state.isOpen(),
		"players":     len(state.Presences),
		"max_players": state.MaxPlayers,
	})
	if err != nil {
		return "", err
	}
	b, err := (&protojson.MarshalOptions{EmitUnpopulated: true}).Marshal(label)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	label, err := matchLabel(state)
	if err != nil {
		logger.Error("UpdateLabel: Failed to marshal: %v", err)
		return
	}
	if err := dispatcher.MatchLabelUpdate(label); err != nil {
		logger.Error("UpdateLabel: Failed to update: %v", err)
	}
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, reason int) interface{} {
	logger.Debug("MatchTerminate: Match terminated for reason %d", reason)
	return state
}

// MatchSignal answers with the current seat claims as JSON.
func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, ""
	}
	b, err := json.Marshal(matchState)
	if err != nil {
		logger.Error("MatchSignal: Failed to marshal state: %v", err)
		return state, ""
	}
	return state, string(b)
}
