package agentui

// Version is the current agentui version.
const Version = "0.1.0"
