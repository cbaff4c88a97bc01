package sqlite

// VersionFromFilename exposes versionFromFilename to the external test package.
var VersionFromFilename = versionFromFilename
