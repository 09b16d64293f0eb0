package console

import (
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync"

	"timerhal/protocol"
)

// ErrUnknownCommand is returned for message IDs with no handler
var ErrUnknownCommand = errors.New("unknown command")

// Handler decodes its own arguments from args and returns the result to
// send back. A returned error is reported through the result code.
type Handler func(args *[]byte) (protocol.Result, error)

// Command is one registered request
type Command struct {
	ID      protocol.MessageID
	Name    string
	Format  string // dictionary format, e.g. "oid=%c duty=%hu"
	Handler Handler
}

// Registry maps message IDs to handlers. Responses are registered with a
// nil handler so that they still appear in the dictionary.
type Registry struct {
	mu         sync.RWMutex
	commands   map[protocol.MessageID]*Command
	nameToID   map[string]protocol.MessageID
	dictionary string
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[protocol.MessageID]*Command),
		nameToID: make(map[string]protocol.MessageID),
	}
}

// Register adds a command under a fixed ID. Registering a name twice keeps
// the first entry.
func (r *Registry) Register(id protocol.MessageID, name, format string, handler Handler) protocol.MessageID {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.nameToID[name]; ok {
		return existing
	}
	r.commands[id] = &Command{ID: id, Name: name, Format: format, Handler: handler}
	r.nameToID[name] = id
	r.rebuildDictionary()
	return id
}

// Command retrieves a command by ID
func (r *Registry) Command(id protocol.MessageID) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.commands[id]
	return cmd, ok
}

// Count returns the number of registered messages
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.commands)
}

// Dispatch runs the handler for id
func (r *Registry) Dispatch(id protocol.MessageID, args *[]byte) (protocol.Result, error) {
	cmd, ok := r.Command(id)
	if !ok || cmd.Handler == nil {
		return protocol.Result{}, ErrUnknownCommand
	}
	return cmd.Handler(args)
}

// Dictionary returns one "id name format" line per message, in ID order
func (r *Registry) Dictionary() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.dictionary
}

// rebuildDictionary must be called with the lock held
func (r *Registry) rebuildDictionary() {
	ids := make([]int, 0, len(r.commands))
	for id := range r.commands {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)

	var sb strings.Builder
	for _, id := range ids {
		cmd := r.commands[protocol.MessageID(id)]
		sb.WriteString(strconv.Itoa(id))
		sb.WriteByte(' ')
		sb.WriteString(cmd.Name)
		if cmd.Format != "" {
			sb.WriteByte(' ')
			sb.WriteString(cmd.Format)
		}
		sb.WriteByte('\n')
	}
	r.dictionary = sb.String()
}
