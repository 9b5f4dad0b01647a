package mpu6050

import (
	"fmt"
	"time"

	"tiltpaddle/internal/fixed"
	"tiltpaddle/internal/i2c"
	"tiltpaddle/internal/imu"
)

var sleep = time.Sleep

// Minimal MPU-6050 driver: probe, configure, burst-read accel+gyro.
// Readings are converted straight to Q16 (g and deg/s); no float math.

const (
	addrDefault = 0x68

	regSmplrtDiv   = 0x19
	regConfig      = 0x1A
	regGyroConfig  = 0x1B
	regAccelConfig = 0x1C
	regIntEnable   = 0x38
	regAccelXoutH  = 0x3B // accel(6) temp(2) gyro(6)
	regPwrMgmt1    = 0x6B
	regWhoAmI      = 0x75

	whoAmIVal = 0x68
	bitReset  = 0x80
	clkPLLX   = 0x01

	fsGyro250dps = 0x00
	fsAccel2g    = 0x00
	dlpf44Hz     = 0x03

	burstLen = 14
)

const (
	// +-2g: 16384 LSB/g, so raw<<2 is exact in Q16.
	accelShift = 2
	// +-250 dps: 32768 LSB == 250 deg/s, so one LSB is exactly 500 Q16 units.
	gyroRawToQ16 = 500
)

type regIO interface {
	ReadRegU8(reg byte) (byte, error)
	ReadReg(reg byte, dst []byte) error
	WriteReg(reg, value byte) error
}

// Device implements imu.Source.
type Device struct {
	dev regIO
	buf [burstLen]byte
}

func DefaultAddress() uint16 { return addrDefault }

func New(dev *i2c.Dev) (*Device, error) {
	if dev == nil {
		return nil, fmt.Errorf("mpu6050: dev is nil")
	}
	return newWithIO(dev)
}

func newWithIO(dev regIO) (*Device, error) {
	if dev == nil {
		return nil, fmt.Errorf("mpu6050: dev is nil")
	}
	d := &Device{dev: dev}

	who, err := d.dev.ReadRegU8(regWhoAmI)
	if err != nil {
		return nil, fmt.Errorf("mpu6050: whoami read failed: %w", err)
	}
	// WHO_AM_I reports bits 6:1 of the address; AD0 does not change it.
	if who&0x7E != whoAmIVal {
		return nil, fmt.Errorf("mpu6050: whoami=0x%02X want 0x%02X", who, whoAmIVal)
	}

	if err := d.init(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Device) init() error {
	if err := d.dev.WriteReg(regPwrMgmt1, bitReset); err != nil {
		return fmt.Errorf("mpu6050: reset failed: %w", err)
	}
	sleep(100 * time.Millisecond)

	if err := d.dev.WriteReg(regPwrMgmt1, clkPLLX); err != nil {
		return fmt.Errorf("mpu6050: wake failed: %w", err)
	}
	sleep(10 * time.Millisecond)

	_ = d.dev.WriteReg(regIntEnable, 0x00)

	// 1 kHz internal rate with DLPF on, divider 0 keeps 1 kHz output to
	// match the estimator's 1 ms tick.
	if err := d.dev.WriteReg(regConfig, dlpf44Hz); err != nil {
		return fmt.Errorf("mpu6050: dlpf config failed: %w", err)
	}
	_ = d.dev.WriteReg(regSmplrtDiv, 0x00)

	if err := d.dev.WriteReg(regGyroConfig, fsGyro250dps); err != nil {
		return fmt.Errorf("mpu6050: gyro config failed: %w", err)
	}
	if err := d.dev.WriteReg(regAccelConfig, fsAccel2g); err != nil {
		return fmt.Errorf("mpu6050: accel config failed: %w", err)
	}
	return nil
}

// ReadRawSample burst-reads one accel+gyro triple.
func (d *Device) ReadRawSample() (imu.Sample, error) {
	if d == nil {
		return imu.Sample{}, fmt.Errorf("mpu6050: device is nil")
	}
	buf := d.buf[:]
	if err := d.dev.ReadReg(regAccelXoutH, buf); err != nil {
		return imu.Sample{}, fmt.Errorf("mpu6050: read sensors failed: %w", err)
	}

	var s imu.Sample
	for i := 0; i < 3; i++ {
		a := be16(buf[2*i:])
		g := be16(buf[8+2*i:])
		s.Accel[i] = fixed.Q16(int32(a) << accelShift)
		s.Gyro[i] = fixed.Q16(int32(g) * gyroRawToQ16)
	}
	return s, nil
}

func be16(b []byte) int16 {
	return int16(b[0])<<8 | int16(b[1])
}

var _ imu.Source = (*Device)(nil)
