package scheduler

import (
	"context"
	"fmt"
	"strconv"
)

// UserSyncJob runs the Trigger for one user inside the worker pool.
type UserSyncJob struct {
	trigger *Trigger
	session *Session
}

func NewUserSyncJob(trigger *Trigger, session *Session) *UserSyncJob {
	return &UserSyncJob{trigger: trigger, session: session}
}

// Execute runs the pass. Per-connection failures are already logged by the
// trigger; the job only fails when every connection failed.
func (j *UserSyncJob) Execute(ctx context.Context) error {
	summary := j.trigger.Run(ctx, j.session)
	if summary.Connections > 0 && summary.Failed == summary.Connections {
		return fmt.Errorf("all %d connections failed to sync", summary.Connections)
	}
	return nil
}

func (j *UserSyncJob) UserID() string {
	return strconv.FormatInt(j.session.UserID, 10)
}

func (j *UserSyncJob) Description() string {
	return fmt.Sprintf("Bank sync for user %d", j.session.UserID)
}
