// Package catalog collects block descriptors from several sources.
//
// A Catalog is filled by Reload, which reads every document from every
// Source, loads them with blockspec and swaps the result in atomically.
// Documents that fail to load are reported and skipped, unless the catalog
// is strict, in which case the whole reload fails and the previous contents
// stay in place. Watch reloads whenever metadata files in a directory
// change.
//
// Each reload emits log events: Loaded per accepted block, Warning per
// tolerated issue, Rejected per failed document and Removed for blocks that
// disappeared since the previous reload.
package catalog
