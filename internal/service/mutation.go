package service

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"
	"go.uber.org/zap"
)

// 变更生命周期状态
const (
	StateValidate    = "validate"
	StatePersist     = "persist"
	StateRecalculate = "recalculate"
	StateApply       = "apply"
	StateCommitted   = "committed"
	StateAborted     = "aborted"
)

// 变更生命周期事件
const (
	EventValidated    = "validated"
	EventPersisted    = "persisted"
	EventRecalculated = "recalculated"
	EventApplied      = "applied"
	EventAbort        = "abort"
)

// Mutation 单次记录变更 (增/改/删) 的生命周期状态机。
// 合法推进顺序: validate → persist → recalculate → apply → committed，
// 任意中间状态都可以 abort。非法的步骤跳跃会被状态机拒绝。
type Mutation struct {
	op  string
	fsm *fsm.FSM
}

// NewMutation 创建变更状态机。删除操作没有校验阶段，start 传 StatePersist。
func NewMutation(logger *zap.Logger, op, start string) *Mutation {
	m := &Mutation{op: op}

	m.fsm = fsm.NewFSM(
		start,
		fsm.Events{
			{Name: EventValidated, Src: []string{StateValidate}, Dst: StatePersist},
			{Name: EventPersisted, Src: []string{StatePersist}, Dst: StateRecalculate},
			{Name: EventRecalculated, Src: []string{StateRecalculate}, Dst: StateApply},
			{Name: EventApplied, Src: []string{StateApply}, Dst: StateCommitted},
			{Name: EventAbort, Src: []string{StateValidate, StatePersist, StateRecalculate, StateApply}, Dst: StateAborted},
		},
		fsm.Callbacks{
			"after_event": func(ctx context.Context, e *fsm.Event) {
				if e.Src != e.Dst {
					logger.Debug("Mutation state changed",
						zap.String("op", op),
						zap.String("from", e.Src),
						zap.String("to", e.Dst))
				}
			},
		},
	)

	return m
}

// Advance 推进到下一阶段
func (m *Mutation) Advance(ctx context.Context, event string) error {
	if err := m.fsm.Event(ctx, event); err != nil {
		return fmt.Errorf("advance mutation %s: %w", m.op, err)
	}
	return nil
}

// Abort 中止变更。已提交或已中止的变更不可再中止。
func (m *Mutation) Abort(ctx context.Context) {
	if m.fsm.Can(EventAbort) {
		_ = m.fsm.Event(ctx, EventAbort)
	}
}

// State 当前状态
func (m *Mutation) State() string {
	return m.fsm.Current()
}
