// Package csi turns a WiFi Channel State Information capture into a breathing
// rate estimate.
//
// The pipeline runs seven stages, each depending only on the previous one's
// output: a pcap capture reader, a per-frame CSI decoder, a time-series
// assembler, a guard-band/pilot subcarrier filter, a per-subcarrier spectral
// transform, a baseline comparator that picks the subcarriers carrying the
// breathing signal, and a peak estimator over the physiological frequency
// band. A run is synchronous and deterministic: concurrent runs share no
// mutable state beyond the read-only baseline profile.
package csi
