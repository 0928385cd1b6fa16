// Hand-written mock in MockGen's output format.
// Source: capture/capture.go (interfaces: Device)

// Package mockcapture provides a mock for capture.Device, the seam
// capture.Sniffer/Transmitter use to reach a live capture source without
// this module depending on any particular backend (libpcap, AF_PACKET,
// NDIS). It is hand-authored in the shape `mockgen -source=capture/capture.go
// -destination=mockcapture/mock_device.go` would produce, since capture.Device
// isn't declared in a form mockgen can run against in this pack.
package mockcapture

import (
	net "net"
	reflect "reflect"

	gomock "github.com/golang/mock/gomock"

	sniffle "github.com/vociferix/sniffle"
)

// MockDevice is a mock of the capture.Device interface.
type MockDevice struct {
	ctrl     *gomock.Controller
	recorder *MockDeviceMockRecorder
}

// MockDeviceMockRecorder is the mock recorder for MockDevice.
type MockDeviceMockRecorder struct {
	mock *MockDevice
}

// NewMockDevice creates a new mock instance.
func NewMockDevice(ctrl *gomock.Controller) *MockDevice {
	mock := &MockDevice{ctrl: ctrl}
	mock.recorder = &MockDeviceMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockDevice) EXPECT() *MockDeviceMockRecorder {
	return m.recorder
}

// Name mocks base method.
func (m *MockDevice) Name() string {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Name")
	ret0, _ := ret[0].(string)
	return ret0
}

// Name indicates an expected call of Name.
func (mr *MockDeviceMockRecorder) Name() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Name", reflect.TypeOf((*MockDevice)(nil).Name))
}

// Description mocks base method.
func (m *MockDevice) Description() string {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Description")
	ret0, _ := ret[0].(string)
	return ret0
}

// Description indicates an expected call of Description.
func (mr *MockDeviceMockRecorder) Description() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Description", reflect.TypeOf((*MockDevice)(nil).Description))
}

// IPv4Addrs mocks base method.
func (m *MockDevice) IPv4Addrs() []net.IP {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "IPv4Addrs")
	ret0, _ := ret[0].([]net.IP)
	return ret0
}

// IPv4Addrs indicates an expected call of IPv4Addrs.
func (mr *MockDeviceMockRecorder) IPv4Addrs() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "IPv4Addrs", reflect.TypeOf((*MockDevice)(nil).IPv4Addrs))
}

// IPv6Addrs mocks base method.
func (m *MockDevice) IPv6Addrs() []net.IP {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "IPv6Addrs")
	ret0, _ := ret[0].([]net.IP)
	return ret0
}

// IPv6Addrs indicates an expected call of IPv6Addrs.
func (mr *MockDeviceMockRecorder) IPv6Addrs() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "IPv6Addrs", reflect.TypeOf((*MockDevice)(nil).IPv6Addrs))
}

// MACAddr mocks base method.
func (m *MockDevice) MACAddr() (net.HardwareAddr, bool) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "MACAddr")
	ret0, _ := ret[0].(net.HardwareAddr)
	ret1, _ := ret[1].(bool)
	return ret0, ret1
}

// MACAddr indicates an expected call of MACAddr.
func (mr *MockDeviceMockRecorder) MACAddr() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "MACAddr", reflect.TypeOf((*MockDevice)(nil).MACAddr))
}

// ReadPacket mocks base method.
func (m *MockDevice) ReadPacket() (*sniffle.RawPacket, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ReadPacket")
	ret0, _ := ret[0].(*sniffle.RawPacket)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// ReadPacket indicates an expected call of ReadPacket.
func (mr *MockDeviceMockRecorder) ReadPacket() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ReadPacket", reflect.TypeOf((*MockDevice)(nil).ReadPacket))
}

// WriteRaw mocks base method.
func (m *MockDevice) WriteRaw(linkType sniffle.LinkType, data []byte) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "WriteRaw", linkType, data)
	ret0, _ := ret[0].(error)
	return ret0
}

// WriteRaw indicates an expected call of WriteRaw.
func (mr *MockDeviceMockRecorder) WriteRaw(linkType, data interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "WriteRaw", reflect.TypeOf((*MockDevice)(nil).WriteRaw), linkType, data)
}

// Close mocks base method.
func (m *MockDevice) Close() error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Close")
	ret0, _ := ret[0].(error)
	return ret0
}

// Close indicates an expected call of Close.
func (mr *MockDeviceMockRecorder) Close() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Close", reflect.TypeOf((*MockDevice)(nil).Close))
}
