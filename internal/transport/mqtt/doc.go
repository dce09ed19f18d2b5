// Package mqtt wraps the Eclipse Paho client with context-aware publish and
// subscribe helpers shared by the MQTT frame source and the MQTT notifier.
package mqtt
