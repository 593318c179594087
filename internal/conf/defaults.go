// conf/defaults.go default values for settings
package conf

import (
	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "fieldrec")
	viper.SetDefault("main.latitude", 0.000)
	viper.SetDefault("main.longitude", 0.000)
	viper.SetDefault("main.timezone", "")

	viper.SetDefault("recording.duration", 3)
	viper.SetDefault("recording.samplerate", 192000)
	viper.SetDefault("recording.channels", 1)
	viper.SetDefault("recording.device", "")
	viper.SetDefault("recording.schedule", []string{})
	viper.SetDefault("recording.interval", 10)
	viper.SetDefault("recording.temppath", "tmp/")
	viper.SetDefault("recording.audiopath", "audio/")

	viper.SetDefault("detection.modelname", "detector")
	viper.SetDefault("detection.threshold", 0.0)
	viper.SetDefault("detection.cleanthreshold", 0.1)

	viper.SetDefault("retention.windows", []string{})
	viper.SetDefault("retention.dutycycle.enabled", false)
	viper.SetDefault("retention.dutycycle.duration", 5)
	viper.SetDefault("retention.dutycycle.period", 30)
	viper.SetDefault("retention.solar.enabled", false)
	viper.SetDefault("retention.solar.anchor", "sunset")
	viper.SetDefault("retention.solar.before", 30)
	viper.SetDefault("retention.solar.after", 30)
	viper.SetDefault("retention.threshold.enabled", false)
	viper.SetDefault("retention.threshold.minimum", 0.6)
	viper.SetDefault("retention.tags", []string{})

	viper.SetDefault("messaging.mqtt.enabled", false)
	viper.SetDefault("messaging.mqtt.broker", "tcp://localhost:1883")
	viper.SetDefault("messaging.mqtt.topic", "fieldrec/detections")
	viper.SetDefault("messaging.mqtt.username", "")
	viper.SetDefault("messaging.mqtt.password", "")
	viper.SetDefault("messaging.mqtt.retain", false)
	viper.SetDefault("messaging.mqtt.timeout", 5)
	viper.SetDefault("messaging.http.enabled", false)
	viper.SetDefault("messaging.http.url", "")
	viper.SetDefault("messaging.http.headers", map[string]string{})
	viper.SetDefault("messaging.http.params", map[string]string{})
	viper.SetDefault("messaging.http.timeout", 5)
	viper.SetDefault("messaging.heartbeatinterval", 3600)
	viper.SetDefault("messaging.sendinterval", 60)

	viper.SetDefault("output.sqlite.path", "fieldrec.db")
	viper.SetDefault("output.outbox.path", "outbox.db")

	viper.SetDefault("telemetry.enabled", false)
	viper.SetDefault("telemetry.listen", "0.0.0.0:8090")
}
