package metrics

import (
	"fmt"
	"sync"
	"time"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/spf13/viper"

	"github.com/x-xyz/gomarket/base/log"
)

const (
	ddPort = 8125
	// bufferMetrics is how many points are batched into one statsd packet
	bufferMetrics = 32
)

var (
	initOnce sync.Once
	ddClient statsCli
)

type statsCli interface {
	Gauge(name string, value float64, tags []string, rate float64) error
	Count(name string, value int64, tags []string, rate float64) error
	Histogram(name string, value float64, tags []string, rate float64) error
	TimeInMilliseconds(name string, value float64, tags []string, rate float64) error
}

// client connects to the agent at datadog_host on first use, without one points only reach the debug log
func client() statsCli {
	initOnce.Do(func() {
		host := viper.GetString("datadog_host")
		if host == "" {
			log.Log().Info("datadog_host not set, metrics are logged only")
			ddClient = &LogClient{}
			return
		}

		addr := fmt.Sprintf("%s:%d", host, ddPort)
		cli, err := statsd.NewBuffered(addr, bufferMetrics)
		if err != nil {
			log.Log().WithFields(log.Fields{"addr": addr, "err": err}).Panic("can't talk to datadog agent")
		}
		log.Log().WithField("addr", addr).Info("connected to datadog agent")
		ddClient = cli
	})
	return ddClient
}

// DDMetrics adds the process tags to every point
type DDMetrics struct {
	ddTags []string
}

func (dm *DDMetrics) tags(kv []string) []string {
	res := make([]string, 0, len(dm.ddTags)+len(kv)/2)
	return append(append(res, dm.ddTags...), parseTag(kv)...)
}

func (dm *DDMetrics) report(fn, key string, val interface{}, err error) {
	if err != nil {
		log.Log().WithFields(log.Fields{"err": err, "key": key, "val": val, "func": fn}).Error("Bump fail")
	}
}

// BumpAvg sends a gauge, statsd has no average type
func (dm *DDMetrics) BumpAvg(key string, val, sampleRate float64, tags ...string) {
	dm.report("BumpAvg", key, val, client().Gauge(key, val, dm.tags(tags), sampleRate))
}

func (dm *DDMetrics) BumpSum(key string, val, sampleRate float64, tags ...string) {
	dm.report("BumpSum", key, val, client().Count(key, int64(val), dm.tags(tags), sampleRate))
}

func (dm *DDMetrics) BumpHistogram(key string, val, sampleRate float64, tags ...string) {
	dm.report("BumpHistogram", key, val, client().Histogram(key, val, dm.tags(tags), sampleRate))
}

// BumpTime starts a timer, End reports it in milliseconds
func (dm *DDMetrics) BumpTime(key string, sampleRate float64, tags ...string) Ender {
	return &ddTimeTracker{
		dm:         dm,
		start:      time.Now(),
		key:        key,
		tags:       dm.tags(tags),
		sampleRate: sampleRate,
	}
}

// parseTag pairs up key, value, key, value into datadog key:value tags
func parseTag(tags []string) []string {
	if tags == nil {
		return nil
	}
	if len(tags)%2 != 0 {
		log.Log().WithField("tags", tags).Panic("tag length needs to be multiple of 2")
	}
	arr := make([]string, len(tags)/2)
	for i := 0; i < len(tags); i += 2 {
		arr[i/2] = tags[i] + ":" + tags[i+1]
	}
	return arr
}

type ddTimeTracker struct {
	dm         *DDMetrics
	start      time.Time
	key        string
	tags       []string
	sampleRate float64
}

func (dt *ddTimeTracker) End() {
	ms := float64(time.Since(dt.start)) / float64(time.Millisecond)
	dt.dm.report("BumpTime", dt.key, ms, client().TimeInMilliseconds(dt.key, ms, dt.tags, dt.sampleRate))
}
