package minitls

import (
	"go.uber.org/zap"
)

// pendingAlert is a 2-byte alert waiting to be sent. The slot holds one
// alert; staging into a full slot is ignored.
type pendingAlert struct {
	data [2]byte
	set  bool
}

func (a *pendingAlert) stage(level, desc uint8) bool {
	if a.set {
		return false
	}
	a.data = [2]byte{level, desc}
	a.set = true
	return true
}

func (a *pendingAlert) clear() {
	a.data = [2]byte{}
	a.set = false
}

// QueueAlert stages an alert raised by this side of the connection. It is
// sent by the next Flush or Send, after which the connection closes.
func (c *Conn) QueueAlert(level, desc uint8) error {
	return c.queueAlert(&c.writerAlert, "writer", level, desc)
}

// QueueReaderAlert stages an alert in response to something received from
// the peer. Reader alerts are sent ahead of writer alerts.
func (c *Conn) QueueReaderAlert(level, desc uint8) error {
	return c.queueAlert(&c.readerAlert, "reader", level, desc)
}

// QueueAlertError stages the alert carried by err, if it has one.
func (c *Conn) QueueAlertError(err error) error {
	if ae, ok := err.(interface {
		AlertLevel() uint8
		AlertDescription() uint8
	}); ok {
		return c.QueueAlert(ae.AlertLevel(), ae.AlertDescription())
	}
	return c.QueueAlert(AlertLevelFatal, AlertInternalError)
}

func (c *Conn) queueAlert(slot *pendingAlert, origin string, level, desc uint8) error {
	if c.Closed() {
		return ErrClosed
	}
	if !slot.stage(level, desc) {
		c.logger.Debug("Alert slot occupied, alert dropped",
			zap.String("origin", origin),
			zap.String("description", AlertDescriptionString(desc)))
		return nil
	}
	c.logger.Debug("Alert staged",
		zap.String("origin", origin),
		zap.Uint8("level", level),
		zap.String("description", AlertDescriptionString(desc)))
	return nil
}

// nextAlert takes the reader alert if one is staged, else the writer alert.
func (c *Conn) nextAlert() ([2]byte, bool) {
	for _, slot := range []*pendingAlert{&c.readerAlert, &c.writerAlert} {
		if slot.set {
			data := slot.data
			slot.clear()
			return data, true
		}
	}
	return [2]byte{}, false
}

// Shutdown sends close_notify and flushes. Like Flush, it returns more when
// the transport would block; call Flush to finish.
func (c *Conn) Shutdown() (bool, error) {
	if c.err != nil {
		return false, c.err
	}
	if c.Closed() {
		return false, nil
	}
	if err := c.QueueAlert(AlertLevelWarning, AlertCloseNotify); err != nil {
		return false, err
	}
	return c.Flush()
}
