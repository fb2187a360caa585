// Package netcdf reads and writes the NetCDF classic file format.
//
// Both the 32-bit offset (CDF-1) and 64-bit offset (CDF-2) variants are
// decoded. Record variables along the unlimited dimension are supported;
// HDF5-based NetCDF-4 files are not.
//
// The Writer produces CDF-1 files and exists mainly to build fixtures.
package netcdf
