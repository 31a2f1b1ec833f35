// Package watch follows a directory with fsnotify and analyzes audio files
// as they settle, keeping the dataset and run history current without
// re-scanning the whole tree.
package watch
