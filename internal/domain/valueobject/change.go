package valueobject

type ChangeType int

const (
	ChangeTypeNoop ChangeType = iota
	ChangeTypeCreate
	ChangeTypeUpdate
	ChangeTypeDelete
)

func (ct ChangeType) String() string {
	switch ct {
	case ChangeTypeNoop:
		return "NOOP"
	case ChangeTypeCreate:
		return "CREATE"
	case ChangeTypeUpdate:
		return "UPDATE"
	case ChangeTypeDelete:
		return "DELETE"
	default:
		return "UNKNOWN"
	}
}

// Change is one planned deployment step. Immutable; WithX methods return
// modified copies so a rendered plan can be annotated without mutation.
type Change struct {
	changeType ChangeType
	kind       string
	name       string
	reason     string
	oldHash    string
	newHash    string
	actions    []string
}

func NewChange(changeType ChangeType, kind, name string) *Change {
	return &Change{
		changeType: changeType,
		kind:       kind,
		name:       name,
	}
}

func (c *Change) Type() ChangeType  { return c.changeType }
func (c *Change) Kind() string      { return c.kind }
func (c *Change) Name() string      { return c.name }
func (c *Change) Reason() string    { return c.reason }
func (c *Change) OldHash() string   { return c.oldHash }
func (c *Change) NewHash() string   { return c.newHash }
func (c *Change) Actions() []string { return c.actions }

func (c *Change) WithReason(reason string) *Change {
	cp := c.clone()
	cp.reason = reason
	return cp
}

func (c *Change) WithHashes(oldHash, newHash string) *Change {
	cp := c.clone()
	cp.oldHash = oldHash
	cp.newHash = newHash
	return cp
}

func (c *Change) WithActions(actions ...string) *Change {
	cp := c.clone()
	cp.actions = make([]string, len(actions))
	copy(cp.actions, actions)
	return cp
}

func (c *Change) Equals(other *Change) bool {
	if other == nil {
		return false
	}
	if c.changeType != other.changeType || c.kind != other.kind || c.name != other.name {
		return false
	}
	if c.oldHash != other.oldHash || c.newHash != other.newHash {
		return false
	}
	if len(c.actions) != len(other.actions) {
		return false
	}
	for i, a := range c.actions {
		if a != other.actions[i] {
			return false
		}
	}
	return true
}

func (c *Change) clone() *Change {
	actions := make([]string, len(c.actions))
	copy(actions, c.actions)
	return &Change{
		changeType: c.changeType,
		kind:       c.kind,
		name:       c.name,
		reason:     c.reason,
		oldHash:    c.oldHash,
		newHash:    c.newHash,
		actions:    actions,
	}
}
