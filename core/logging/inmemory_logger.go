package logging

import (
	"container/ring"
	"io"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// BufferSize is the number of entries kept by a MemLogger.
const BufferSize = 1024

const (
	IncludeMessage    = 1
	IncludeFields     = 2
	IncludeStacktrace = 3
)

type memRing struct {
	mutex sync.Mutex
	r     *ring.Ring
}

/*MemCore - a ring buffered inmemory zap core */
type MemCore struct {
	zapcore.LevelEnabler
	enc  zapcore.Encoder
	ring *memRing
	ctx  []zapcore.Field
}

/*MemLogger - keeps the most recent log entries in memory for diagnostics */
type MemLogger struct {
	core *MemCore
}

/*NewMemLogger - create a new memory logger */
func NewMemLogger(enc zapcore.Encoder, enab zapcore.LevelEnabler) *MemLogger {
	return &MemLogger{
		core: &MemCore{
			LevelEnabler: enab,
			enc:          enc,
			ring:         &memRing{r: ring.New(BufferSize)},
		},
	}
}

/*GetCore - get the core associated with this logger */
func (ml *MemLogger) GetCore() zapcore.Core {
	return ml.core
}

/*GetLogs - get the inmemory logs, oldest first */
func (ml *MemLogger) GetLogs() []*observer.LoggedEntry {
	mr := ml.core.ring
	mr.mutex.Lock()
	defer mr.mutex.Unlock()
	logs := make([]*observer.LoggedEntry, 0, BufferSize)
	mr.r.Do(func(val interface{}) {
		if val != nil {
			logs = append(logs, val.(*observer.LoggedEntry))
		}
	})
	return logs
}

/*WriteLogs - write the logs to a io.Writer */
func (ml *MemLogger) WriteLogs(w io.Writer, detailLevel int) {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.LevelKey = "level"
	cfg.EncoderConfig.NameKey = "name"
	cfg.EncoderConfig.MessageKey = "msg"
	cfg.EncoderConfig.CallerKey = "caller"
	if detailLevel >= IncludeStacktrace {
		cfg.EncoderConfig.StacktraceKey = "stacktrace"
	} else {
		cfg.EncoderConfig.StacktraceKey = ""
	}
	encoder := zapcore.NewConsoleEncoder(cfg.EncoderConfig)
	for _, entry := range ml.GetLogs() {
		var fields []zapcore.Field
		if detailLevel >= IncludeFields {
			fields = entry.Context
		}
		buf, err := encoder.EncodeEntry(entry.Entry, fields)
		if err != nil {
			continue
		}
		w.Write(buf.Bytes())
		buf.Free()
	}
}

/*With - implement interface */
func (mc *MemCore) With(fields []zapcore.Field) zapcore.Core {
	clone := &MemCore{
		LevelEnabler: mc.LevelEnabler,
		enc:          mc.enc.Clone(),
		ring:         mc.ring,
		ctx:          append(append([]zapcore.Field{}, mc.ctx...), fields...),
	}
	for i := range fields {
		fields[i].AddTo(clone.enc)
	}
	return clone
}

/*Check - implement interface */
func (mc *MemCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if mc.Enabled(ent.Level) {
		return ce.AddCore(ent, mc)
	}
	return ce
}

/*Write - implement interface */
func (mc *MemCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	all := make([]zapcore.Field, 0, len(mc.ctx)+len(fields))
	all = append(all, mc.ctx...)
	all = append(all, fields...)
	mr := mc.ring
	mr.mutex.Lock()
	mr.r.Value = &observer.LoggedEntry{Entry: ent, Context: all}
	mr.r = mr.r.Next()
	mr.mutex.Unlock()
	return nil
}

/*Sync - implement interface */
func (mc *MemCore) Sync() error {
	return nil
}
