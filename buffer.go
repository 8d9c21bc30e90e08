package flashfs

// This file implements component D, the write buffer and stream: a
// single page-sized RAM staging area plus a cursor. Bytes land on the
// medium only when the buffer fills or a flush is requested; the write
// pointer only ever advances by whole pages, which is what keeps it
// page-aligned per invariant 2.

// WriteByte appends a single byte to the buffer, submitting the page to
// the device once it fills. It returns ErrDeviceFault if the handle is
// Faulted, and ErrBusyErasing if an arming-time erase pass has not yet
// completed.
func (fs *FS) WriteByte(b byte) error {
	if err := fs.writeGuard(); err != nil {
		return err
	}
	fs.buf[fs.n] = b
	fs.n++
	if fs.n == fs.geo.PageSize {
		return fs.submitCurrentPage()
	}
	return nil
}

// WriteBytes is logically a loop of WriteByte, but bulk-copies into the
// page buffer between submissions instead of copying one byte at a time.
func (fs *FS) WriteBytes(data []byte) error {
	if err := fs.writeGuard(); err != nil {
		return err
	}
	for len(data) > 0 {
		space := fs.geo.PageSize - fs.n
		chunk := len(data)
		if chunk > space {
			chunk = space
		}
		copy(fs.buf[fs.n:], data[:chunk])
		fs.n += chunk
		data = data[chunk:]
		if fs.n == fs.geo.PageSize {
			if err := fs.submitCurrentPage(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (fs *FS) writeGuard() error {
	if fs.Faulted() {
		return fs.fault
	}
	if !fs.cfg.BackgroundErase && !fs.armDone {
		return ErrBusyErasing
	}
	return nil
}

// FlushAsync pads any partial page with 0xFF and submits it, without
// waiting for the submission to complete.
func (fs *FS) FlushAsync() error {
	if fs.Faulted() {
		return fs.fault
	}
	if fs.n == 0 {
		return nil
	}
	for i := fs.n; i < fs.geo.PageSize; i++ {
		fs.buf[i] = 0xFF
	}
	fs.n = fs.geo.PageSize
	return fs.submitCurrentPage()
}

// FlushSync flushes and then polls until the submission is durable, per
// invariant 5.
func (fs *FS) FlushSync() error {
	if err := fs.FlushAsync(); err != nil {
		return err
	}
	return fs.blockUntilPendingDone()
}

// Close flushes and drops the in-RAM state; a subsequent write requires
// Init again.
func (fs *FS) Close() error {
	err := fs.FlushSync()
	fs.initDone = false
	return err
}

// IsEOF is computed purely from (tail, head, full) and the fault state,
// never from buffer contents, per the rewrite's resolution of the
// "unaligned EOF" open question.
func (fs *FS) IsEOF() bool {
	if fs.Faulted() {
		return true
	}
	return fs.ptrs.full
}

// BytesAvailableInBuffer is the remaining room in the RAM page buffer.
func (fs *FS) BytesAvailableInBuffer() int {
	return fs.geo.PageSize - fs.n
}

// submitCurrentPage hands a full page buffer to the device at tail,
// waiting out any previous program still in flight first (only one
// device operation outstanding at a time) and driving a foreground
// emergency erase if the slot about to be programmed is not free.
func (fs *FS) submitCurrentPage() error {
	if err := fs.blockUntilPendingDone(); err != nil {
		return err
	}
	if err := fs.ensureSlotFree(); err != nil {
		return err
	}
	addr := fs.ptrs.tail
	if err := fs.beginProgram(addr, fs.buf); err != nil {
		return err
	}
	fs.n = 0
	return nil
}

// ensureSlotFree preserves invariant 3 (never program a non-free page)
// and invariant 4 (never erase into the live range) by driving the
// foreground emergency erase path (§4.E) when the writer has caught up
// to within one page of head.
func (fs *FS) ensureSlotFree() error {
	if fs.ptrs.full || fs.geo.freeAhead(&fs.ptrs) < int64(fs.geo.PageSize) {
		return fs.driveEmergencyErase()
	}
	return nil
}
