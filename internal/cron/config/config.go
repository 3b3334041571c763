package cron_config

type Config struct {
	// Heartbeat check, every minute
	CronScheduleHeartbeat string `env:"CRON_SCHEDULE_HEARTBEAT" envDefault:"0 * * * * *"`
	// Inbox refresh, every 5 minutes
	CronScheduleInboxRefresh string `env:"CRON_SCHEDULE_INBOX_REFRESH" envDefault:"0 */5 * * * *"`
}
