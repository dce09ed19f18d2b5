// Package monitor exposes the thermal monitor control API over gRPC.
//
// Messages are protobuf well-known types: requests are Empty, Int64Value or
// UInt32Value, and responses carry the JSON form of the domain read models
// inside a Struct or ListValue. The service descriptor is declared by hand in
// service.go, so no generated code is involved.
package monitor
