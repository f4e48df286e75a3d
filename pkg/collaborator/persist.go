// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package collaborator

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/AccelByte/extend-arena-backend/pkg/constants"
	"github.com/AccelByte/extend-arena-backend/pkg/envelope"
)

// Persist runs fn in the background with its own timeout. Failures are logged and dropped,
// the caller never waits for the write.
func Persist(scope *envelope.Scope, operation string, timeout time.Duration, fn func(ctx context.Context) error) {
	if timeout <= 0 {
		timeout = constants.DefaultPersistTimeout
	}

	detached := scope.Detached("persist." + operation)
	go func() {
		defer detached.Finish()

		ctx, cancel := context.WithTimeout(detached.Ctx, timeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			detached.Log.WithFields(logrus.Fields{
				"operation": operation,
				"timeout":   timeout,
			}).Warnf("persistence failed: %s", err.Error())
		}
	}()
}

// Notify emits the event and logs a failure instead of returning it.
func Notify(scope *envelope.Scope, notifier Notifier, userID string, event string, payload interface{}) {
	if notifier == nil {
		return
	}
	if err := notifier.Emit(scope.Ctx, userID, event, payload); err != nil {
		scope.Log.WithFields(logrus.Fields{
			"userID": userID,
			"event":  event,
		}).Warnf("unable to notify player: %s", err.Error())
	}
}
