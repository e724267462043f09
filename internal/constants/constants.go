package constants

const USER_AGENT = "riftstats/0.1.0 (+https://github.com/riftstats/riftstats)"

const SERVICE_NAME = "riftstats"
