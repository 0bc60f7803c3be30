package ui

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Field names a text element on the screen.
type Field string

const (
	FieldTemperature   Field = "temperature"
	FieldDescription   Field = "description"
	FieldLastUpdate    Field = "lastUpdate"
	FieldPressure      Field = "pressure"
	FieldHumidity      Field = "humidity"
	FieldRain          Field = "rain"
	FieldVisibility    Field = "visibility"
	FieldWindDirection Field = "windDirection"
	FieldWindSpeed     Field = "windSpeed"
)

// Panel names an element whose visibility can be toggled.
type Panel string

const (
	PanelLiveButton Panel = "liveButton"
	// PanelDetails holds pressure, humidity, rain and visibility.
	PanelDetails Panel = "details"
	// PanelWind holds the windmills, direction and speed.
	PanelWind Panel = "wind"
)

// Notification is a shown message that can be dismissed later.
type Notification interface {
	Dismiss()
}

// Screen is the widget surface the renderer draws on.
type Screen interface {
	SetRefreshing(bool)
	SetText(Field, string)
	SetIcon(url string)
	SetWindmillSpeed(metresPerSecond float64)
	SetVisible(Panel, bool)
	Visible(Panel) bool
	// ShowNotification shows text until the returned handle is dismissed.
	ShowNotification(text string) Notification
}

// MemoryScreen is a Screen kept in memory. It is safe for concurrent use
// and can be snapshotted for the HTTP API.
type MemoryScreen struct {
	mu            sync.RWMutex
	refreshing    bool
	texts         map[Field]string
	icon          string
	windmill      float64
	visible       map[Panel]bool
	notifications []shownNotification
	now           func() time.Time
}

type shownNotification struct {
	id      uuid.UUID
	text    string
	shownAt time.Time
}

var _ Screen = (*MemoryScreen)(nil)

// NewMemoryScreen returns an empty screen with every panel hidden.
func NewMemoryScreen() *MemoryScreen {
	return &MemoryScreen{
		texts:   make(map[Field]string),
		visible: make(map[Panel]bool),
		now:     time.Now,
	}
}

func (s *MemoryScreen) SetRefreshing(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshing = v
}

func (s *MemoryScreen) SetText(f Field, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.texts[f] = text
}

func (s *MemoryScreen) SetIcon(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.icon = url
}

func (s *MemoryScreen) SetWindmillSpeed(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.windmill = v
}

func (s *MemoryScreen) SetVisible(p Panel, v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visible[p] = v
}

func (s *MemoryScreen) Visible(p Panel) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.visible[p]
}

func (s *MemoryScreen) Refreshing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshing
}

func (s *MemoryScreen) Text(f Field) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.texts[f]
}

func (s *MemoryScreen) Icon() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.icon
}

func (s *MemoryScreen) ShowNotification(text string) Notification {
	n := shownNotification{id: uuid.New(), text: text, shownAt: s.now()}

	s.mu.Lock()
	s.notifications = append(s.notifications, n)
	s.mu.Unlock()

	return &memoryNotification{screen: s, id: n.id}
}

// Notifications returns the texts currently shown, oldest first.
func (s *MemoryScreen) Notifications() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.notifications))
	for _, n := range s.notifications {
		out = append(out, n.text)
	}
	return out
}

func (s *MemoryScreen) dismiss(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, n := range s.notifications {
		if n.id == id {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return
		}
	}
}

type memoryNotification struct {
	screen *MemoryScreen
	id     uuid.UUID
}

// Dismiss removes the notification; dismissing twice is a no-op.
func (n *memoryNotification) Dismiss() {
	n.screen.dismiss(n.id)
}

// Snapshot is the JSON form of a MemoryScreen.
type Snapshot struct {
	Refreshing    bool                 `json:"refreshing"`
	Texts         map[Field]string     `json:"texts"`
	Icon          string               `json:"icon"`
	WindmillSpeed float64              `json:"windmillSpeed"`
	Visible       map[Panel]bool       `json:"visible"`
	Notifications []NotificationRecord `json:"notifications"`
}

// NotificationRecord is a notification currently on screen.
type NotificationRecord struct {
	ID      string    `json:"id"`
	Text    string    `json:"text"`
	ShownAt time.Time `json:"shownAt"`
}

// Snapshot copies the current screen contents.
func (s *MemoryScreen) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Refreshing:    s.refreshing,
		Texts:         make(map[Field]string, len(s.texts)),
		Icon:          s.icon,
		WindmillSpeed: s.windmill,
		Visible:       make(map[Panel]bool, len(s.visible)),
		Notifications: make([]NotificationRecord, 0, len(s.notifications)),
	}
	for k, v := range s.texts {
		snap.Texts[k] = v
	}
	for _, p := range []Panel{PanelLiveButton, PanelDetails, PanelWind} {
		snap.Visible[p] = s.visible[p]
	}
	for _, n := range s.notifications {
		snap.Notifications = append(snap.Notifications, NotificationRecord{
			ID:      n.id.String(),
			Text:    n.text,
			ShownAt: n.shownAt,
		})
	}
	return snap
}
