package render

const titleTemplate = `###################################################
# Restrict access to IP addresses within {{country}} only. #
# add {{date}}                                  #
###################################################
`

const apachePreamble = `SetEnvIf User-Agent "msnbot" allowbot
SetEnvIf User-Agent "bingbot" allowbot

Order Deny,Allow
Deny from All

## Allow bot
Allow from env=allowbot

## Private IP Address
Allow from 127.0.0.1
Allow from 10.0.0.0/8
Allow from 172.16.0.0/12
Allow from 192.168.0.0/16
`

// The map block belongs to the http context; the directives after it are
// meant for a server or location include.
const nginxPreamble = `set $allow_access 0;

## Allow if User-Agent is search bot
map $http_user_agent $allow_bot {
    default         0;
    ~*(msnbot|bingbot) 1;
}

## Private IP Address
allow 127.0.0.1;
allow 10.0.0.0/8;
allow 172.16.0.0/12;
allow 192.168.0.0/16;
`

const nginxEpilogue = `deny all;

if ($allow_bot = 1) {
	allow all;
	deny none;
}
`
