package log

import (
	"fmt"
)

// drain is the single consumer of the record queue.
// It writes each record to every current sink in order and exits once the
// queue is stopped and empty.
func (l *Logger) drain() {
	defer close(l.done)
	defer l.state.DrainExited.Store(true)

	var buf []byte
	for {
		record, ok := l.queue.pop()
		if !ok {
			return
		}

		buf = record.AppendLine(buf[:0], l.cfg.TimestampFormat)
		for _, s := range *l.sinks.Load() {
			if err := l.writeSink(s, record, buf); err != nil {
				l.state.SinkErrors.Add(1)
				l.internalLog("sink %T failed writing %s record for logger '%s': %v\n", s, levelToString(record.Level), l.name, err)
			}
		}
		l.state.TotalLogsProcessed.Add(1)
		l.queue.release()
	}
}

// writeSink delivers one record, turning a sink panic into an error so one
// broken sink cannot stop the drain
func (l *Logger) writeSink(s Sink, record Record, line []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sink panic: %v", r)
		}
	}()

	if rs, ok := s.(RecordSink); ok {
		return rs.WriteRecord(record, l.cfg.TimestampFormat)
	}
	_, err = s.Write(line)
	return err
}
