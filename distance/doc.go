// Package distance provides descriptor distance calculations.
//
// # Supported Metrics
//
//   - MetricL2: Squared Euclidean distance (default), for real-valued
//     descriptors such as SIFT or SURF
//   - MetricHamming: bit distance for binary descriptors such as ORB,
//     carried one byte per float32 element
//
// # Usage
//
//	dist, _ := distance.Provider(distance.MetricL2)
//	d := dist(a, b)
//	mean, _ := distance.MeanProvider(distance.MetricL2)
//	mean(centre, members)
package distance
