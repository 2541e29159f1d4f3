package session

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"herowiz/internal/domain"
)

// task is one pending host-side transition.
type task struct {
	at    time.Time
	apply func(*domain.GameState) *domain.GameState
}

// taskTable maps task ids to their fire time and transition. It is owned by
// the session loop and never touched from other goroutines.
type taskTable struct {
	tasks map[string]task
	// fired holds ids that already ran while their trigger is still present,
	// so a transition that changed nothing is not rescheduled forever.
	fired map[string]bool
}

func newTaskTable() *taskTable {
	return &taskTable{tasks: map[string]task{}, fired: map[string]bool{}}
}

// wanted is the set of tasks a host should have pending for a state.
type wanted map[string]wantedTask

type wantedTask struct {
	delay time.Duration
	apply func(*domain.GameState) *domain.GameState
}

// desiredTasks derives the display timers and disconnect grace timers from s.
// Task ids carry the notice's identity so a new notice gets a fresh timer.
func desiredTasks(s *domain.GameState, r *domain.Rules, display, grace time.Duration) wanted {
	w := wanted{}
	if s == nil || s.Over() {
		return w
	}
	if n := s.DrawNotice; n != nil {
		w[fmt.Sprintf("drew:%d", n.Seat)] = wantedTask{display, r.DismissDraw}
	}
	if n := s.DumpNotice; n != nil {
		w[fmt.Sprintf("dumped:%d:%d", n.Seat, n.Card)] = wantedTask{display, r.DismissDump}
	}
	if n := s.SummonNotice; n != nil {
		w[fmt.Sprintf("drew_from_pile:%d:%d", n.Seat, n.Card)] = wantedTask{display, r.DismissSummon}
	}
	if n := s.EffectNotice; n != nil {
		w[fmt.Sprintf("effect:%d:%s", n.Seat, n.Kind)] = wantedTask{display, r.DismissEffect}
	}
	if n := s.Preview; n != nil {
		w[fmt.Sprintf("preview:%d:%d", n.Seat, n.Card)] = wantedTask{display, r.DismissPreview}
	}
	if d := s.Declaration; d != nil {
		// An unconfirmed declaration lapses unplayed.
		w[fmt.Sprintf("declaration:%d:%d", d.Seat, d.Card)] = wantedTask{display, r.CancelDeclaration}
	}
	for _, seat := range s.Disconnected {
		seat := seat // per-iteration copy (go 1.21 loop semantics)
		w[fmt.Sprintf("grace:%d", seat)] = wantedTask{grace, func(st *domain.GameState) *domain.GameState {
			return r.ExpireDisconnect(st, seat)
		}}
	}
	return w
}

// reconcile drops tasks whose trigger is gone and schedules new ones.
// Dropping is how an explicit dismiss cancels a display timer.
func (t *taskTable) reconcile(w wanted, now time.Time) {
	for id := range t.tasks {
		if _, ok := w[id]; !ok {
			delete(t.tasks, id)
		}
	}
	for id := range t.fired {
		if _, ok := w[id]; !ok {
			delete(t.fired, id)
		}
	}
	for id, wt := range w {
		if _, ok := t.tasks[id]; ok || t.fired[id] {
			continue
		}
		t.tasks[id] = task{at: now.Add(wt.delay), apply: wt.apply}
	}
}

// clear empties the table. Non-hosts keep no timers.
func (t *taskTable) clear() {
	clear(t.tasks)
	clear(t.fired)
}

// next returns the earliest fire time.
func (t *taskTable) next() (time.Time, bool) {
	var earliest time.Time
	found := false
	for _, tk := range t.tasks {
		if !found || tk.at.Before(earliest) {
			earliest, found = tk.at, true
		}
	}
	return earliest, found
}

// due removes and returns the tasks whose time has come, in fire order.
func (t *taskTable) due(now time.Time) []task {
	var out []task
	var ids []string
	for id, tk := range t.tasks {
		if !tk.at.After(now) {
			ids = append(ids, id)
		}
	}
	sortByFireTime(ids, t.tasks)
	for _, id := range ids {
		out = append(out, t.tasks[id])
		delete(t.tasks, id)
		t.fired[id] = true
	}
	return out
}

func sortByFireTime(ids []string, tasks map[string]task) {
	slices.SortFunc(ids, func(a, b string) int {
		if c := tasks[a].at.Compare(tasks[b].at); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
}

func (t *taskTable) len() int { return len(t.tasks) }

func (t *taskTable) has(id string) bool {
	_, ok := t.tasks[id]
	return ok
}
