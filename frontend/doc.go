// Package frontend turns a stream of sensor observations into keyframes.
//
// Dataset replay and live drivers see only ObservationSink. KeyFrameBuilder
// is the sink that inserts one keyframe per observation into a graph and
// chains consecutive keyframes with relative pose factors.
package frontend
