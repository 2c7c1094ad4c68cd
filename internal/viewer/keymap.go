package viewer

import "context"

// Action is a user action that needs no argument.
type Action string

const (
	ActionNextPage     Action = "next"
	ActionPreviousPage Action = "previous"
	ActionZoomIn       Action = "zoom_in"
	ActionZoomOut      Action = "zoom_out"
)

// Key names used by KeyMap.
const (
	KeyLeft  = "left"
	KeyRight = "right"
	KeyPlus  = "+"
	KeyEqual = "="
	KeyMinus = "-"
)

// KeyMap is the keyboard policy every UI implements.
var KeyMap = map[string]Action{
	KeyLeft:  ActionPreviousPage,
	KeyRight: ActionNextPage,
	KeyPlus:  ActionZoomIn,
	KeyEqual: ActionZoomIn,
	KeyMinus: ActionZoomOut,
}

// ActionForKey looks up key in KeyMap.
func ActionForKey(key string) (Action, bool) {
	a, ok := KeyMap[key]
	return a, ok
}

// Do runs a argument-less action. Unknown actions are ignored.
func (v *Viewer) Do(ctx context.Context, a Action) error {
	switch a {
	case ActionNextPage:
		return v.NextPage(ctx)
	case ActionPreviousPage:
		return v.PreviousPage(ctx)
	case ActionZoomIn:
		return v.ZoomIn(ctx)
	case ActionZoomOut:
		return v.ZoomOut(ctx)
	}
	return nil
}

// PressKey runs the action bound to key and reports whether one was bound.
func (v *Viewer) PressKey(ctx context.Context, key string) (bool, error) {
	a, ok := ActionForKey(key)
	if !ok {
		return false, nil
	}
	return true, v.Do(ctx, a)
}
