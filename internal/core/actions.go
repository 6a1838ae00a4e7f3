package core

// actions.go is the admin action registry: named operations that run over a
// selection of members. An action either produces a download or a notice.
// The bulk SMS and email actions only report; no delivery is wired up.

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"
)

// Download is a generated file ready to be sent to the browser.
type Download struct {
	FileName    string
	ContentType string
	Body        []byte
}

// ActionResult carries exactly one of Download or Notice.
type ActionResult struct {
	Download *Download
	Notice   *Notice
}

// ActionFunc runs an action over members in the order given.
type ActionFunc func(ctx context.Context, members []Member) (ActionResult, error)

type Action struct {
	Name  string
	Label string
	Run   ActionFunc
}

// ActionRegistry maps action names to actions.
type ActionRegistry struct {
	mu      sync.RWMutex
	actions map[string]Action
}

func NewActionRegistry() *ActionRegistry {
	return &ActionRegistry{actions: make(map[string]Action)}
}

// Register adds an action. Panics if the name is already taken.
func (r *ActionRegistry) Register(a Action) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.actions[a.Name]; exists {
		panic(fmt.Sprintf("action already registered: %s", a.Name))
	}
	r.actions[a.Name] = a
}

func (r *ActionRegistry) Get(name string) (Action, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.actions[name]
	return a, ok
}

// All returns the registered actions sorted by name.
func (r *ActionRegistry) All() []Action {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Action, 0, len(r.actions))
	for _, a := range r.actions {
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// Run looks up and runs the named action.
func (r *ActionRegistry) Run(ctx context.Context, name string, members []Member) (ActionResult, error) {
	a, ok := r.Get(name)
	if !ok {
		return ActionResult{}, fmt.Errorf("%w: %s", ErrUnknownAction, name)
	}
	return a.Run(ctx, members)
}

// Member action names.
const (
	ActionExportCSV   = "export_as_csv"
	ActionExportExcel = "export_as_excel"
	ActionBulkSMS     = "send_bulk_sms"
	ActionBulkEmail   = "send_bulk_email"
)

// DefaultMemberActions returns a registry with the built-in member actions.
func DefaultMemberActions() *ActionRegistry {
	r := NewActionRegistry()
	r.Register(Action{Name: ActionExportCSV, Label: "Export selected members as CSV", Run: exportMembersCSV})
	r.Register(Action{Name: ActionExportExcel, Label: "Export selected members as Excel", Run: exportMembersXLSX})
	r.Register(Action{Name: ActionBulkSMS, Label: "Send bulk SMS to selected members", Run: notDelivered("Bulk SMS")})
	r.Register(Action{Name: ActionBulkEmail, Label: "Send bulk email to selected members", Run: notDelivered("Bulk email")})
	return r
}

func exportMembersCSV(_ context.Context, members []Member) (ActionResult, error) {
	var buf bytes.Buffer
	if err := WriteMembersCSV(&buf, members); err != nil {
		return ActionResult{}, err
	}
	return ActionResult{Download: &Download{
		FileName: MembersCSVName, ContentType: ContentTypeCSV, Body: buf.Bytes(),
	}}, nil
}

func exportMembersXLSX(_ context.Context, members []Member) (ActionResult, error) {
	var buf bytes.Buffer
	if err := WriteMembersXLSX(&buf, members); err != nil {
		return ActionResult{}, err
	}
	return ActionResult{Download: &Download{
		FileName: MembersXLSXName, ContentType: ContentTypeXLSX, Body: buf.Bytes(),
	}}, nil
}

// notDelivered builds a placeholder action that only reports the selection size.
func notDelivered(what string) ActionFunc {
	return func(_ context.Context, members []Member) (ActionResult, error) {
		return ActionResult{Notice: &Notice{
			Level:   LevelWarning,
			Message: fmt.Sprintf("%s was not sent to %d members: delivery is not configured.", what, len(members)),
		}}, nil
	}
}
