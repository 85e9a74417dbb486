// Package kmeans implements k-means clustering for vocabulary tree training.
//
// Each inner node of a vocabulary tree is split by one Cluster call over the
// descriptors that reached it. Seeding follows k-means++ and draws from the
// caller's random source, so a fixed seed yields a fixed tree.
package kmeans
