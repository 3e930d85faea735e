package bot

import (
	"context"
	"fmt"

	"prowl/internal/account"
	"prowl/internal/gateway/notifier"
	"prowl/internal/logger"
)

// Reporter emits the periodic operator status summary. It only reads the
// persisted balance/score state; it never touches position state, so it can
// run and stop independently of the trading loop.
type Reporter struct {
	State    *account.State
	Notifier notifier.TextNotifier
	Actions  ActionLog
}

// Send pushes one balance/score summary. Failures are logged, never fatal.
func (r *Reporter) Send(ctx context.Context) {
	balance, err := r.State.Balance()
	if err != nil {
		logger.Warnf("report: reading balance failed: %v", err)
		return
	}
	score, err := r.State.Score()
	if err != nil {
		logger.Warnf("report: reading score failed: %v", err)
		return
	}
	msg := fmt.Sprintf("prowl report: wallet=%.2f USDT, score=%.1f", balance, score)
	if err := r.Notifier.SendText(msg); err != nil {
		logger.Warnf("report: delivery failed: %v", err)
		return
	}
	logger.Infof("report: daily report sent")
	if r.Actions != nil {
		if err := r.Actions.LogAction(ctx, "daily report sent"); err != nil {
			logger.Warnf("report: persisting action failed: %v", err)
		}
	}
}
