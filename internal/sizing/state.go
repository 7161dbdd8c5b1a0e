package sizing

// EventKind - тип события формы размеров.
type EventKind int

const (
	// EventSetWidth - пользователь изменил ширину.
	EventSetWidth EventKind = iota + 1
	// EventSetHeight - пользователь изменил высоту.
	EventSetHeight
	// EventSetLock - переключение фиксации пропорций.
	EventSetLock
	// EventSelectPreset - выбран пресет.
	EventSelectPreset
	// EventClear - сброс обеих сторон.
	EventClear
)

// Event описывает одно изменение формы.
type Event struct {
	Kind   EventKind
	Value  int
	Lock   bool
	Preset Preset
}

// SetWidth создаёт событие изменения ширины. Значение <= 0 сбрасывает ширину.
func SetWidth(v int) Event { return Event{Kind: EventSetWidth, Value: v} }

// SetHeight создаёт событие изменения высоты. Значение <= 0 сбрасывает высоту.
func SetHeight(v int) Event { return Event{Kind: EventSetHeight, Value: v} }

// SetLock создаёт событие переключения фиксации пропорций.
func SetLock(lock bool) Event { return Event{Kind: EventSetLock, Lock: lock} }

// SelectPreset создаёт событие выбора пресета.
func SelectPreset(p Preset) Event { return Event{Kind: EventSelectPreset, Preset: p} }

// Clear создаёт событие сброса размеров.
func Clear() Event { return Event{Kind: EventClear} }

// State - состояние формы размеров для одного файла.
type State struct {
	// Original - исходные размеры. Не меняются в течение сессии.
	Original Dimensions

	// Width - целевая ширина (0 = не задана).
	Width int

	// Height - целевая высота (0 = не задана).
	Height int

	// Lock - сохранять пропорции при вводе одной стороны.
	Lock bool
}

// NewState создаёт состояние с включённой фиксацией пропорций.
func NewState(original Dimensions) State {
	return State{Original: original, Lock: true}
}

// Target возвращает текущие целевые размеры.
func (s State) Target() Dimensions {
	return Dimensions{Width: s.Width, Height: s.Height}
}

// HasTarget возвращает true, если задана хотя бы одна сторона.
func (s State) HasTarget() bool {
	return s.Width > 0 || s.Height > 0
}

// Apply применяет событие и возвращает новое состояние.
//
// Вторая сторона вычисляется только если она не задана: после того как
// заданы обе, правка одной не трогает другую. Запись во вторую сторону
// выполняется напрямую и повторно правило не запускает.
func Apply(s State, e Event) State {
	switch e.Kind {
	case EventSetWidth:
		s.Width = clampUnset(e.Value)
		if s.Lock && s.Width > 0 && s.Height == 0 {
			if h, ok := derive(s.Width, s.Original.Height, s.Original.Width); ok {
				s.Height = h
			}
		}

	case EventSetHeight:
		s.Height = clampUnset(e.Value)
		if s.Lock && s.Height > 0 && s.Width == 0 {
			if w, ok := derive(s.Height, s.Original.Width, s.Original.Height); ok {
				s.Width = w
			}
		}

	case EventSetLock:
		s.Lock = e.Lock

	case EventSelectPreset:
		if d, ok := Resolve(e.Preset, s.Original); ok {
			s.Width = d.Width
			s.Height = d.Height
		}

	case EventClear:
		s.Width = 0
		s.Height = 0
	}

	return s
}

// derive возвращает floor(value * num / den).
// При неположительных исходных размерах возвращает false.
func derive(value, num, den int) (int, bool) {
	if num <= 0 || den <= 0 {
		return 0, false
	}
	return int(int64(value) * int64(num) / int64(den)), true
}

func clampUnset(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
