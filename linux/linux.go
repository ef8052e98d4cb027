// Copyright 2023 Canonical Ltd.
// Licensed under the LGPLv3 with static-linking exception.
// See LICENCE file for details.

/*
Package linux provides an interface for communicating with TPMs attached
to an I2C bus using the Linux i2c-dev character device interface.
*/
package linux

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"golang.org/x/sys/unix"
	"golang.org/x/xerrors"

	"github.com/deanjicn/tpm-i2c-atmel/i2c"
)

const (
	// ioctl request numbers from <linux/i2c-dev.h>; golang.org/x/sys/unix
	// does not generate constants for the i2c-dev interface.
	i2cSlave = 0x0703 // I2C_SLAVE
	i2cFuncs = 0x0705 // I2C_FUNCS

	devPath = "/dev"

	// DefaultAdapterNumber is the adapter the reference board wires the
	// chip to (i2c2 on the Beaglebone, which the 3.2 kernel exposes as
	// i2c-3).
	DefaultAdapterNumber = 3
)

var (
	// ErrNoAdapters indicates that the kernel exposes no i2c adapters.
	ErrNoAdapters = errors.New("no i2c adapters are available")

	sysfsPath = "/sys"
)

// Adapter represents an open Linux i2c adapter character device. It
// implements [i2c.Adapter]. The bus lock is process local: it serializes
// users of this Adapter instance, which the kernel in turn serializes
// against other processes per transfer.
type Adapter struct {
	f     *os.File
	funcs i2c.Funcs

	mu   sync.Mutex
	addr uint16 // address currently latched with I2C_SLAVE
}

// OpenAdapter opens the i2c adapter character device at the supplied
// path (eg, /dev/i2c-3).
func OpenAdapter(path string) (*Adapter, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}

	s, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if s.Mode()&os.ModeDevice == 0 {
		f.Close()
		return nil, fmt.Errorf("unsupported file mode %v", s.Mode())
	}

	funcs, err := unix.IoctlGetInt(int(f.Fd()), i2cFuncs)
	if err != nil {
		f.Close()
		return nil, xerrors.Errorf("cannot query adapter functionality: %w", err)
	}

	return &Adapter{f: f, funcs: i2c.Funcs(funcs), addr: 0xffff}, nil
}

func (a *Adapter) setAddr(addr uint16) error {
	if addr == a.addr {
		return nil
	}
	if err := unix.IoctlSetInt(int(a.f.Fd()), i2cSlave, int(addr)); err != nil {
		return xerrors.Errorf("cannot set slave address: %w", err)
	}
	a.addr = addr
	return nil
}

// ReadAt implements [i2c.Adapter]. A NACK from the device surfaces as an
// EREMOTEIO error from the kernel, which callers running a poll loop
// treat as "not ready".
func (a *Adapter) ReadAt(addr uint16, buf []byte) (int, error) {
	if err := a.setAddr(addr); err != nil {
		return 0, err
	}
	return unix.Read(int(a.f.Fd()), buf)
}

// WriteAt implements [i2c.Adapter].
func (a *Adapter) WriteAt(addr uint16, buf []byte) (int, error) {
	if err := a.setAddr(addr); err != nil {
		return 0, err
	}
	return unix.Write(int(a.f.Fd()), buf)
}

// Funcs implements [i2c.Adapter]. The mask comes straight from the
// I2C_FUNCS ioctl.
func (a *Adapter) Funcs() i2c.Funcs {
	return a.funcs
}

// Lock implements [i2c.Adapter].
func (a *Adapter) Lock() {
	a.mu.Lock()
}

// Unlock implements [i2c.Adapter].
func (a *Adapter) Unlock() {
	a.mu.Unlock()
}

// Close implements [i2c.Adapter].
func (a *Adapter) Close() error {
	return a.f.Close()
}

// AdapterPath returns the character device path for the numbered
// adapter.
func AdapterPath(number int) string {
	return fmt.Sprintf("%s/i2c-%d", devPath, number)
}

// ListAdapters returns the numbers of all i2c adapters registered with
// the kernel, in ascending order.
func ListAdapters() (out []int, err error) {
	class := sysfsPath + "/class/i2c-dev"

	f, err := os.Open(class)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	entries, err := f.Readdirnames(0)
	if err != nil {
		return nil, err
	}

	for _, entry := range entries {
		var number int
		if _, err := fmt.Sscanf(entry, "i2c-%d", &number); err != nil {
			return nil, fmt.Errorf("unexpected name \"%s\": %w", entry, err)
		}
		out = append(out, number)
	}

	sort.Ints(out)
	return out, nil
}
