// Package assets serves the files the embed page references: the plugin
// bootstrap script, the "get the plugin" image and the .p3d package.
//
// Files come from a directory on disk so a new package can be dropped in
// without a rebuild. Directory listings are never served and there is no
// fallback document; anything that is not a regular file is a 404.
// Responses carry Cache-Control: no-cache, must-revalidate because the
// .p3d package is replaced in place.
package assets
