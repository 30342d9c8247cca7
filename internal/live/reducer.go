package live

import (
	"time"

	"github.com/google/uuid"
)

// IdleResetDelay is how long after stream_end the live-event panes linger
// before returning to the idle view.
const IdleResetDelay = 3 * time.Second

// LogEntry is one displayed status event. The log is ordered, append-only
// and unbounded for the life of the exchange.
type LogEntry struct {
	ID      string
	Time    time.Time
	Code    string
	Message string
	Tool    string
}

// ToolActivity is one backend-side tool invocation. EndedAt is nil while
// the tool is running.
type ToolActivity struct {
	Name      string
	StartedAt time.Time
	EndedAt   *time.Time
}

// ItemProgress is the live analysis progress for one SKU in the current
// batch.
type ItemProgress struct {
	SKU     string
	Status  ItemStatus
	Message string
	Detail  string
}

// Effects are side effects the reducer requests but never performs itself;
// the caller runs them on the event loop.
type Effect interface{ effect() }

// EffectRefreshReports asks for an on-demand poll of the report snapshot.
type EffectRefreshReports struct{}

// EffectScheduleIdleReset asks the caller to call ResetLiveState after
// IdleResetDelay.
type EffectScheduleIdleReset struct{}

// EffectNotify surfaces a transient user-facing notice.
type EffectNotify struct {
	Level   string // "error" | "warning" | "info"
	Message string
}

func (EffectRefreshReports) effect()    {}
func (EffectScheduleIdleReset) effect() {}
func (EffectNotify) effect()            {}

// Reducer folds inbound frames, one at a time in arrival order, into typed
// state slices. It performs no reordering and no deduplication beyond the
// tool start/end pairing. It is not safe for concurrent use: exactly one
// goroutine (the view's event loop) applies frames.
type Reducer struct {
	now   func() time.Time
	newID func() string

	sessionID string

	eventLog       []LogEntry
	activeTools    []ToolActivity
	completedTools []ToolActivity

	reply    []byte
	replying bool

	items     map[string]*ItemProgress
	itemOrder []string
}

func NewReducer() *Reducer {
	return &Reducer{
		now:   time.Now,
		newID: func() string { return uuid.NewString() },
		items: make(map[string]*ItemProgress),
	}
}

// Apply folds one decoded frame and returns the effects the caller must run.
func (r *Reducer) Apply(f Frame) []Effect {
	if f.SessionID != "" {
		r.sessionID = f.SessionID
	}

	switch f.Type {
	case FrameStatus:
		return r.applyStatus(f)

	case FrameStreamStart:
		r.reply = r.reply[:0]
		r.replying = true
		return nil

	case FrameStreamChunk:
		p, err := f.ChunkPayload()
		if err != nil {
			return nil
		}
		r.reply = append(r.reply, p.Text...)
		return nil

	case FrameStreamEnd:
		r.replying = false
		return []Effect{EffectRefreshReports{}, EffectScheduleIdleReset{}}

	case FramePong:
		// Liveness only.
		return nil

	case FrameError:
		r.replying = false
		return []Effect{EffectNotify{Level: "error", Message: f.ErrorPayload().Message}}
	}
	return nil
}

func (r *Reducer) applyStatus(f Frame) []Effect {
	p, err := f.StatusPayload()
	if err != nil {
		return nil
	}

	r.eventLog = append(r.eventLog, LogEntry{
		ID:      r.newID(),
		Time:    r.now(),
		Code:    p.Code,
		Message: p.Message,
		Tool:    p.Tool,
	})

	switch p.Code {
	case StatusToolStart:
		r.openTool(p.Tool)
	case StatusToolEnd:
		r.closeTool(p.Tool)
	}

	if update, ok := ParseProgress(p.Message); ok {
		r.applyItemUpdate(update)
	}
	return nil
}

func (r *Reducer) openTool(name string) {
	if name == "" {
		return
	}
	// At most one active record per name; a duplicate start is dropped.
	for _, t := range r.activeTools {
		if t.Name == name {
			return
		}
	}
	r.activeTools = append(r.activeTools, ToolActivity{Name: name, StartedAt: r.now()})
}

func (r *Reducer) closeTool(name string) {
	for i, t := range r.activeTools {
		if t.Name != name {
			continue
		}
		ended := r.now()
		t.EndedAt = &ended
		r.activeTools = append(r.activeTools[:i], r.activeTools[i+1:]...)
		r.completedTools = append(r.completedTools, t)
		return
	}
	// An end without a matching start is a no-op: no dangling closed record.
}

// applyItemUpdate folds a parsed progress update, never regressing the
// status of a known item within the batch.
func (r *Reducer) applyItemUpdate(u ProgressUpdate) {
	item, ok := r.items[u.SKU]
	if !ok {
		// Only items seeded by BeginExchange belong to the batch; a stray
		// SKU from a superseded exchange is ignored.
		return
	}
	if stageRank(u.Status) < stageRank(item.Status) {
		// Keep the fresher stage but accept the newer text.
		item.Message = u.Message
		return
	}
	item.Status = u.Status
	item.Message = u.Message
	if u.Total > 0 {
		item.Detail = u.Message
	}
}

// BeginExchange resets the streaming-reply and live-event state and re-seeds
// item progress for a new batch, treating any prior in-flight exchange as
// superseded. The session id is deliberately kept.
func (r *Reducer) BeginExchange(skus []string) {
	r.reply = r.reply[:0]
	r.replying = false
	r.ResetLiveState()
	r.items = make(map[string]*ItemProgress, len(skus))
	r.itemOrder = r.itemOrder[:0]
	for _, sku := range skus {
		r.items[sku] = &ItemProgress{SKU: sku, Status: ItemPending}
		r.itemOrder = append(r.itemOrder, sku)
	}
}

// ResetLiveState clears the event log and tool activity back to the idle
// view. Item progress and the session id survive.
func (r *Reducer) ResetLiveState() {
	r.eventLog = nil
	r.activeTools = nil
	r.completedTools = nil
}

func (r *Reducer) SessionID() string { return r.sessionID }
func (r *Reducer) Replying() bool    { return r.replying }
func (r *Reducer) Reply() string     { return string(r.reply) }

func (r *Reducer) EventLog() []LogEntry {
	out := make([]LogEntry, len(r.eventLog))
	copy(out, r.eventLog)
	return out
}

func (r *Reducer) ActiveTools() []ToolActivity {
	out := make([]ToolActivity, len(r.activeTools))
	copy(out, r.activeTools)
	return out
}

func (r *Reducer) CompletedTools() []ToolActivity {
	out := make([]ToolActivity, len(r.completedTools))
	copy(out, r.completedTools)
	return out
}

// Items returns batch progress in seed order.
func (r *Reducer) Items() []ItemProgress {
	out := make([]ItemProgress, 0, len(r.itemOrder))
	for _, sku := range r.itemOrder {
		if item, ok := r.items[sku]; ok {
			out = append(out, *item)
		}
	}
	return out
}
