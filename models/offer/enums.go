package offer

// LifecycleStatus represents the offer lifecycle state
type LifecycleStatus string

const (
	LifecycleStatusDraft     LifecycleStatus = "draft"
	LifecycleStatusPublished LifecycleStatus = "published"
)

func (ls LifecycleStatus) String() string {
	return string(ls)
}

func (ls LifecycleStatus) IsValid() bool {
	switch ls {
	case LifecycleStatusDraft, LifecycleStatusPublished:
		return true
	default:
		return false
	}
}

// Decision represents a vendor's one-shot response to a published offer
type Decision string

const (
	DecisionPending  Decision = "pending"
	DecisionAccepted Decision = "accepted"
	DecisionRejected Decision = "rejected"
)

func (d Decision) String() string {
	return string(d)
}

func (d Decision) IsValid() bool {
	switch d {
	case DecisionPending, DecisionAccepted, DecisionRejected:
		return true
	default:
		return false
	}
}

// IsTerminal returns true once the vendor has decided; terminal decisions
// never transition again
func (d Decision) IsTerminal() bool {
	return d == DecisionAccepted || d == DecisionRejected
}
