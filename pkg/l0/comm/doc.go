// Package comm provides L0 protocol support for the Wheelphone robot.
package comm

// L0 protocol is communicated between the Wheelphone firmware and the L1
// controller over a point-to-point byte channel (USB accessory link or a
// serial port).
//
// The exchange is synchronized: the robot sends one fixed size telemetry
// frame, the controller answers with one fixed size command frame on its
// next tick. There is no sequence number, CRC or retransmission. A frame
// whose kind byte is unknown is consumed and dropped.
//
// Producer: Wheelphone firmware
// Consumer: L1 controller
