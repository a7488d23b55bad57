/*Package metrics records engine metrics through datadog statsd.
Keys are prefixed by the package that owns them and follow the suffixes
- time spent inside the process: *.time
- failures: *.err
- sizes and counts: anything else
*/
package metrics

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/x-xyz/gomarket/base/env"
)

// Ender stops a timer started by BumpTime
type Ender interface {
	End()
}

// Service provides interface for metrics
type Service interface {
	BumpAvg(key string, val float64, tags ...string)
	BumpSum(key string, val float64, tags ...string)
	BumpHistogram(key string, val float64, tags ...string)

	BumpTime(key string, tags ...string) Ender
}

// New creates a metric client with package name as prefix
func New(pkgName string) Service {
	return &Metrics{
		pkgName: pkgName,
		datadog: DDMetrics{ddTags: baseTags()},
	}
}

// baseTags identifies the process, config wins over the environment
func baseTags() []string {
	envName := viper.GetString("env_name")
	if envName == "" {
		envName = env.EnvName()
	}
	appName := viper.GetString("app_name")
	if appName == "" {
		appName = env.AppName()
	}
	return []string{
		"host:", // drops the agent host tag
		"pod:" + env.PodName(),
		"env:" + envName,
		"app:" + appName,
	}
}

// Metrics prefixes every key with the package name
type Metrics struct {
	pkgName string
	datadog DDMetrics
}

// disabled reports whether the package is listed in metrics.disabled
func (mt *Metrics) disabled() bool {
	for _, pkg := range viper.GetStringSlice("metrics.disabled") {
		if pkg == mt.pkgName {
			return true
		}
	}
	return false
}

// sampleRate is metrics.sample_rate, in (0, 1], defaulting to always send
func (mt *Metrics) sampleRate() float64 {
	if rate := viper.GetFloat64("metrics.sample_rate"); rate > 0 && rate <= 1 {
		return rate
	}
	return 1.0
}

// bump sends one point, a panic from malformed tags is counted instead of crashing the caller
func (mt *Metrics) bump(kind, key string, tags []string, send func(name string, rate float64)) {
	if mt.disabled() {
		return
	}
	name := mt.pkgName + "." + key
	defer func() {
		if r := recover(); r != nil {
			mt.datadog.BumpSum(kind+".panic", 1, 1, "key", name+"#"+strings.Join(tags, "#"))
		}
	}()
	send(name, mt.sampleRate())
}

func (mt *Metrics) BumpAvg(key string, val float64, tags ...string) {
	mt.bump("bumpavg", key, tags, func(name string, rate float64) {
		mt.datadog.BumpAvg(name, val, rate, tags...)
	})
}

func (mt *Metrics) BumpSum(key string, val float64, tags ...string) {
	mt.bump("bumpsum", key, tags, func(name string, rate float64) {
		mt.datadog.BumpSum(name, val, rate, tags...)
	})
}

func (mt *Metrics) BumpHistogram(key string, val float64, tags ...string) {
	mt.bump("bumphistogram", key, tags, func(name string, rate float64) {
		mt.datadog.BumpHistogram(name, val, rate, tags...)
	})
}

// BumpTime starts a timer, typically used as
//
//	defer met.BumpTime("buy.time").End()
func (mt *Metrics) BumpTime(key string, tags ...string) Ender {
	var ender Ender = noopEnder{}
	mt.bump("bumptime", key, tags, func(name string, rate float64) {
		ender = mt.datadog.BumpTime(name, rate, tags...)
	})
	return ender
}

type noopEnder struct{}

func (noopEnder) End() {}
