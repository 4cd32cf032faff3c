package valueobject

type Plan struct {
	changes []*Change
}

func NewPlan() *Plan {
	return &Plan{changes: make([]*Change, 0)}
}

func (p *Plan) Changes() []*Change { return p.changes }

func (p *Plan) AddChange(ch *Change) {
	p.changes = append(p.changes, ch)
}

func (p *Plan) HasChanges() bool {
	for _, c := range p.changes {
		if c.Type() != ChangeTypeNoop {
			return true
		}
	}
	return false
}

func (p *Plan) FilterByType(changeType ChangeType) []*Change {
	var result []*Change
	for _, c := range p.changes {
		if c.Type() == changeType {
			result = append(result, c)
		}
	}
	return result
}

func (p *Plan) FilterByKind(kind string) []*Change {
	var result []*Change
	for _, c := range p.changes {
		if c.Kind() == kind {
			result = append(result, c)
		}
	}
	return result
}

// Counts returns create, update, delete and noop totals in that order.
func (p *Plan) Counts() (creates, updates, deletes, noops int) {
	for _, c := range p.changes {
		switch c.Type() {
		case ChangeTypeCreate:
			creates++
		case ChangeTypeUpdate:
			updates++
		case ChangeTypeDelete:
			deletes++
		default:
			noops++
		}
	}
	return
}

func (p *Plan) Equals(other *Plan) bool {
	if other == nil {
		return false
	}
	if len(p.changes) != len(other.changes) {
		return false
	}
	for i, c := range p.changes {
		if !c.Equals(other.changes[i]) {
			return false
		}
	}
	return true
}
