// Package thermal contains the frame model produced by the 32x24 thermal sensor
// and its packed binary representation.
//
// Frame is a fixed-size array, so assigning or passing it by value always yields
// a private copy; buffers and stores never alias caller memory.
package thermal
