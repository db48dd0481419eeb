// Package block owns the marker-delimited region inside the target file.
//
// A region looks like:
//
//	### ADD GeoIPAllow ###
//	###################################################
//	# Restrict access to IP addresses within US only. #
//	# add 2026-10-15                                  #
//	...
//	### END GeoIPAllow ###
//
// Everything outside the region belongs to the caller and is preserved
// byte-for-byte. The embedded "add YYYY-MM-DD" date is the only staleness
// signal: a region dated another calendar day, or with no readable date, is
// stale. Replacing a region removes every match of the marker pair first, so
// a file never carries more than one region after a write.
//
// Writes go through a temporary file and a rename; concurrent writers in
// different processes are not coordinated.
package block
