package app

import (
	"context"
	"fmt"
	"time"

	"github.com/puls-academy/backend/internal/models"
	"github.com/puls-academy/backend/internal/modules/notification"
	pkgcron "github.com/puls-academy/backend/internal/pkg/cron"
	sessionpkg "github.com/puls-academy/backend/internal/pkg/session"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	sessionIdleCutoff    = 7 * 24 * time.Hour
	resolvedRequestKeep  = 90 * 24 * time.Hour
	readNotificationKeep = 90 * 24 * time.Hour
)

// registerCronJobs registers all scheduled background jobs.
func registerCronJobs(sched *pkgcron.Scheduler, db *gorm.DB, logger *zap.Logger) {
	cronLogger := logger.Named("CronService")
	notifySvc := notification.NewService(db)

	sched.Register(pkgcron.Job{
		Name:        "purge_idle_sessions",
		Description: "حذف الجلسات الخاملة منذ أكثر من ٧ أيام",
		Interval:    24 * time.Hour,
		Fn: func(ctx context.Context) error {
			n, err := sessionpkg.PurgeIdle(db, time.Now().Add(-sessionIdleCutoff))
			if err != nil {
				cronLogger.Warn("فشل حذف الجلسات الخاملة", zap.Error(err))
				return err
			}
			cronLogger.Info(fmt.Sprintf("تم حذف %d جلسة خاملة", n))
			return nil
		},
	})

	sched.Register(pkgcron.Job{
		Name:        "cleanup_device_requests",
		Description: "حذف طلبات الأجهزة المحسومة منذ أكثر من ٩٠ يوماً",
		Interval:    24 * time.Hour,
		Fn: func(ctx context.Context) error {
			cutoff := time.Now().Add(-resolvedRequestKeep)
			result := db.Unscoped().
				Where("status <> ? AND created_at < ?", models.DeviceRequestPending, cutoff).
				Delete(&models.DeviceLoginRequest{})
			if result.Error != nil {
				cronLogger.Warn("فشل حذف طلبات الأجهزة القديمة", zap.Error(result.Error))
				return result.Error
			}
			cronLogger.Info(fmt.Sprintf("تم حذف %d طلب جهاز قديم", result.RowsAffected))
			return nil
		},
	})

	sched.Register(pkgcron.Job{
		Name:        "cleanup_notifications",
		Description: "حذف الإشعارات المقروءة منذ أكثر من ٩٠ يوماً",
		Interval:    24 * time.Hour,
		Fn: func(ctx context.Context) error {
			n, err := notifySvc.PurgeRead(time.Now().Add(-readNotificationKeep))
			if err != nil {
				cronLogger.Warn("فشل حذف الإشعارات القديمة", zap.Error(err))
				return err
			}
			cronLogger.Info(fmt.Sprintf("تم حذف %d إشعار مقروء", n))
			return nil
		},
	})
}
