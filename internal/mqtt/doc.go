// Package mqtt publishes the dashboard's day status to Home Assistant
// over MQTT. Lifeboard appears as a native HA device with availability
// tracking and four sensors: the traffic-light day status, the unpaid
// bill total due in the next seven days, unread agent messages, and
// open Mission Control tasks. Version and uptime are published as
// diagnostic entities.
//
// The publisher uses Eclipse Paho v2's [autopaho] package for
// connection management with automatic reconnection. On every
// (re-)connect it publishes retained discovery config payloads for each
// sensor entity and a birth message ("online") to the availability
// topic. A will message moves the availability topic to "offline" on
// unexpected disconnects. States are pushed on a fixed interval and
// again whenever the document changes.
package mqtt
