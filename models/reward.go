package models

// RewardEffect is the closed set of things the accountant knows how to apply
// to a ledger. Boss rewards, achievement tier rewards and quest payouts are
// all expressed through it so there is exactly one application path.
type RewardEffect interface {
	rewardEffect()
}

// ExpReward grants experience (cascading level-ups happen in the accountant).
type ExpReward int64

// GoldReward grants gold.
type GoldReward int64

// TitleReward sets the hunter's displayed title.
type TitleReward string

// CompositeReward applies its parts in order.
type CompositeReward []RewardEffect

func (ExpReward) rewardEffect()       {}
func (GoldReward) rewardEffect()      {}
func (TitleReward) rewardEffect()     {}
func (CompositeReward) rewardEffect() {}
