package scheduler

import (
	"path/filepath"
	"time"

	"github.com/Kellerman81/go_case_tables/config"
	"github.com/Kellerman81/go_case_tables/database"
	"github.com/Kellerman81/go_case_tables/logger"
	"github.com/Kellerman81/go_case_tables/tasks"
)

const JobBackup = "backup_database"

var QueueData *tasks.Dispatcher

var cfgGeneral config.GeneralConfig

// InitScheduler starts the data queue and registers the backup schedule.
// An empty BackupCron disables scheduled backups.
func InitScheduler(cfg config.GeneralConfig) error {
	cfgGeneral = cfg
	QueueData = tasks.NewDispatcher("Data", 1, 10)
	QueueData.Start()

	if cfg.BackupCron == "" {
		return nil
	}
	if err := QueueData.DispatchCron(JobBackup, backupJob, cfg.BackupCron); err != nil {
		QueueData.Stop()
		return err
	}
	logger.Log.Infoln("Scheduled", JobBackup, "at", cfg.BackupCron)
	return nil
}

// BackupNow queues a backup outside the schedule.
func BackupNow() error {
	return QueueData.Dispatch(JobBackup, backupJob)
}

func backupJob() {
	path := filepath.Join(cfgGeneral.BackupDir, database.BackupName(time.Now()))
	if err := database.Backup(path, cfgGeneral.BackupMax); err != nil {
		logger.Log.Errorln("Backup failed:", err)
		return
	}
	logger.Log.Infoln("Backup written to", path)
}

func Stop() {
	if QueueData != nil {
		QueueData.Stop()
	}
}
